// Package router turns a Task into an ExecutionPlan: it classifies the
// query against weighted patterns per capability set, picks a primary and
// secondary specialists, and arranges them into dependency-ordered groups.
package router

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/example/agent-ensemble/internal/models"
)

// Pattern is one weighted signal for a capability set.
type Pattern struct {
	Expr   string
	Weight float64
	rx     *regexp.Regexp
}

// Profile declares how one capability set bids for work. Profiles are
// scored in declaration order; declaration order is also the tie-break, so
// routing stays reproducible.
type Profile struct {
	Set         string
	Description string
	Patterns    []Pattern
	// After names capability sets whose output this profile consumes via
	// the shared context. A selected profile runs in a later group than
	// every selected set it names.
	After []string
}

// RouteFunc is the pluggable decomposition policy.
type RouteFunc func(ctx context.Context, task *models.Task) ([]*models.SubTask, *models.ExecutionPlan, error)

// secondaryThreshold is the normalized score above which a non-primary
// profile still joins the plan.
const secondaryThreshold = 0.3

// Router is the default pattern-scoring policy with an optional LLM
// fallback for low-confidence queries.
type Router struct {
	profiles       []Profile
	maxSpecialists int
	fallback       Classifier
	fallbackBelow  float64
	logger         *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithMaxSpecialists caps how many capability sets one task fans out to.
func WithMaxSpecialists(n int) Option {
	return func(r *Router) { r.maxSpecialists = n }
}

// WithFallback installs a classifier consulted when the pattern score
// normalizes below threshold.
func WithFallback(c Classifier, threshold float64) Option {
	return func(r *Router) {
		r.fallback = c
		r.fallbackBelow = threshold
	}
}

// WithLogger sets the router's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New compiles the profile patterns and builds a router.
func New(profiles []Profile, opts ...Option) (*Router, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no routing profiles declared")
	}
	compiled := make([]Profile, len(profiles))
	for i, p := range profiles {
		if p.Set == "" {
			return nil, fmt.Errorf("profile %d has empty set name", i)
		}
		compiled[i] = p
		compiled[i].Patterns = make([]Pattern, len(p.Patterns))
		for j, pat := range p.Patterns {
			rx, err := regexp.Compile(pat.Expr)
			if err != nil {
				return nil, fmt.Errorf("profile %q pattern %q: %w", p.Set, pat.Expr, err)
			}
			compiled[i].Patterns[j] = Pattern{Expr: pat.Expr, Weight: pat.Weight, rx: rx}
		}
	}
	r := &Router{
		profiles:       compiled,
		maxSpecialists: 3,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type scored struct {
	index int
	score float64
}

// Route classifies the task and emits subtasks plus a validated plan.
// It fails with ErrRoutingAmbiguous when no capability set matches any
// portion of the query; defaulting silently would execute against the
// wrong tool scope.
func (r *Router) Route(ctx context.Context, task *models.Task) ([]*models.SubTask, *models.ExecutionPlan, error) {
	selected, confidence := r.patternSelect(task.Query)

	if r.fallback != nil && confidence < r.fallbackBelow {
		if llmSelected, ok := r.fallbackSelect(ctx, task.Query); ok {
			selected = llmSelected
		}
	}
	if len(selected) == 0 {
		return nil, nil, fmt.Errorf("%w: no capability set matched %q",
			models.ErrRoutingAmbiguous, task.Query)
	}
	if len(selected) > r.maxSpecialists {
		selected = selected[:r.maxSpecialists]
	}

	subtasks, plan := r.assemble(task, selected)
	if err := ValidatePlan(plan); err != nil {
		return nil, nil, err
	}
	r.logger.Debug("task routed",
		zap.String("task", task.ID),
		zap.Int("subtasks", len(subtasks)),
		zap.Int("groups", len(plan.Groups)),
		zap.Float64("confidence", confidence))
	return subtasks, plan, nil
}

// patternSelect scores every profile against the query and returns the
// selected profile indices ordered primary-first, plus the primary's
// normalized confidence.
func (r *Router) patternSelect(query string) ([]int, float64) {
	q := strings.ToLower(query)
	scores := make([]scored, 0, len(r.profiles))
	max := 0.0
	for i, p := range r.profiles {
		s := 0.0
		for _, pat := range p.Patterns {
			if pat.rx.MatchString(q) {
				s += pat.Weight
			}
		}
		scores = append(scores, scored{index: i, score: s})
		if s > max {
			max = s
		}
	}
	if max == 0 {
		return nil, 0
	}
	for i := range scores {
		scores[i].score /= max
	}
	// Equal scores keep declaration order: the set declared first wins.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	selected := []int{scores[0].index}
	for _, s := range scores[1:] {
		if s.score > secondaryThreshold {
			selected = append(selected, s.index)
		}
	}
	return selected, scores[0].score
}

// assemble places the selected profiles into groups. A profile that names
// another selected set in After lands in a later group; everything else
// shares the earliest possible group and runs in parallel.
func (r *Router) assemble(task *models.Task, selected []int) ([]*models.SubTask, *models.ExecutionPlan) {
	// Work in declaration order so group assignment is stable.
	ordered := append([]int(nil), selected...)
	sort.Ints(ordered)

	selectedSets := map[string]bool{}
	for _, i := range ordered {
		selectedSets[r.profiles[i].Set] = true
	}

	groupOf := map[string]int{}
	var resolve func(i int) int
	resolve = func(i int) int {
		p := r.profiles[i]
		if g, done := groupOf[p.Set]; done {
			return g
		}
		g := 0
		for _, dep := range p.After {
			if !selectedSets[dep] {
				continue
			}
			for _, j := range ordered {
				if r.profiles[j].Set == dep {
					if dg := resolve(j) + 1; dg > g {
						g = dg
					}
				}
			}
		}
		groupOf[p.Set] = g
		return g
	}
	maxGroup := 0
	for _, i := range ordered {
		if g := resolve(i); g > maxGroup {
			maxGroup = g
		}
	}

	subtasks := make([]*models.SubTask, 0, len(ordered))
	groups := make([]models.Group, maxGroup+1)
	for g := range groups {
		groups[g].ID = g
		if g > 0 {
			groups[g].DependsOn = []int{g - 1}
		}
	}
	for _, i := range ordered {
		p := r.profiles[i]
		g := groupOf[p.Set]
		st := &models.SubTask{
			ID:            task.ID + ":" + p.Set,
			TaskID:        task.ID,
			Description:   subTaskDescription(p, task.Query),
			CapabilitySet: p.Set,
			Group:         g,
		}
		if g > 0 {
			st.DependsOn = []int{g - 1}
		}
		subtasks = append(subtasks, st)
		groups[g].SubTaskIDs = append(groups[g].SubTaskIDs, st.ID)
	}
	return subtasks, &models.ExecutionPlan{Groups: groups}
}

func subTaskDescription(p Profile, query string) string {
	if p.Description == "" {
		return query
	}
	return p.Description + ": " + query
}
