package models

import "time"

// GoalKind represents what a goal is trying to bring about.
type GoalKind string

const (
	GoalPossess     GoalKind = "possess"
	GoalUnderstand  GoalKind = "understand"
	GoalVerify      GoalKind = "verify"
	GoalConditional GoalKind = "conditional"
	GoalAnswer      GoalKind = "answer"
	GoalCreate      GoalKind = "create"
	GoalDestroy     GoalKind = "destroy"
	GoalTransfer    GoalKind = "transfer"
	GoalOpen        GoalKind = "open"
	GoalClose       GoalKind = "close"
	GoalPlace       GoalKind = "place"
)

// GoalStatus represents the current lifecycle state of a goal.
type GoalStatus string

const (
	GoalPending          GoalStatus = "pending"
	GoalPlanned          GoalStatus = "planned"
	GoalExecuting        GoalStatus = "executing"
	GoalAwaitingTeaching GoalStatus = "awaiting_teaching"
	GoalCompleted        GoalStatus = "completed"
	GoalFailed           GoalStatus = "failed"
	GoalAbandoned        GoalStatus = "abandoned"
)

// Terminal reports whether no further transition is possible from s.
func (s GoalStatus) Terminal() bool {
	return s == GoalCompleted || s == GoalFailed || s == GoalAbandoned
}

// GoalTarget describes what a goal refers to. Words is an object description
// (POSSESS, VERIFY, ANSWER and the world-changing kinds) or the condition
// (CONDITIONAL). Destination describes the container a PLACE goal fills and
// Recipient who a TRANSFER goal hands the object to.
type GoalTarget struct {
	Words       []string        `yaml:"words,omitempty" json:"words,omitempty"`
	Destination []string        `yaml:"destination,omitempty" json:"destination,omitempty"`
	Recipient   string          `yaml:"recipient,omitempty" json:"recipient,omitempty"`
	Query       QueryKind       `yaml:"query,omitempty" json:"query,omitempty"`
	Consequent  *ConsequentGoal `yaml:"consequent,omitempty" json:"consequent,omitempty"`
}

// ConsequentGoal is the goal a CONDITIONAL runs when its condition holds.
type ConsequentGoal struct {
	Kind   GoalKind   `yaml:"kind" json:"kind"`
	Target GoalTarget `yaml:"target" json:"target"`
}

// Goal is a target state the agent intends to bring about or verify.
type Goal struct {
	ID            string     `yaml:"id" json:"id"`
	Seq           uint64     `yaml:"seq" json:"seq"`
	Kind          GoalKind   `yaml:"kind" json:"kind"`
	Target        GoalTarget `yaml:"target" json:"target"`
	Status        GoalStatus `yaml:"status" json:"status"`
	Priority      int        `yaml:"priority" json:"priority"`
	Plan          []Step     `yaml:"plan,omitempty" json:"plan,omitempty"`
	UnknownTokens []string   `yaml:"unknown_tokens,omitempty" json:"unknown_tokens,omitempty"`
	BlockedBy     string     `yaml:"blocked_by,omitempty" json:"blocked_by,omitempty"`
	StepsExecuted int        `yaml:"steps_executed" json:"steps_executed"`
	Consulted     []string   `yaml:"consulted,omitempty" json:"consulted,omitempty"`
	Reason        string     `yaml:"reason,omitempty" json:"reason,omitempty"`
	Result        string     `yaml:"result,omitempty" json:"result,omitempty"`
	CreatedAt     time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `yaml:"updated_at" json:"updated_at"`
}

// NextStep returns the index of the first unexecuted step, or -1.
func (g *Goal) NextStep() int {
	for i := range g.Plan {
		if !g.Plan[i].Executed {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand outside the agent.
func (g *Goal) Clone() *Goal {
	c := *g
	c.Target = g.Target.clone()
	c.UnknownTokens = append([]string(nil), g.UnknownTokens...)
	c.Consulted = append([]string(nil), g.Consulted...)
	if g.Plan != nil {
		c.Plan = make([]Step, len(g.Plan))
		for i, s := range g.Plan {
			c.Plan[i] = s.clone()
		}
	}
	return &c
}

func (t GoalTarget) clone() GoalTarget {
	c := t
	c.Words = append([]string(nil), t.Words...)
	c.Destination = append([]string(nil), t.Destination...)
	if t.Consequent != nil {
		cons := *t.Consequent
		cons.Target = t.Consequent.Target.clone()
		c.Consequent = &cons
	}
	return c
}

// StepAction enumerates the kinds of plan steps.
type StepAction string

const (
	ActionQueryWorld      StepAction = "query_world"
	ActionMutateWorld     StepAction = "mutate_world"
	ActionOutputQuestion  StepAction = "output_question"
	ActionVerifyCondition StepAction = "verify_condition"
	ActionWaitForTeaching StepAction = "wait_for_teaching"
)

// Step is one action in a goal's plan.
type Step struct {
	Action   StepAction        `yaml:"action" json:"action"`
	Params   map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	Executed bool              `yaml:"executed" json:"executed"`
	Outcome  *StepOutcome      `yaml:"outcome,omitempty" json:"outcome,omitempty"`
}

func (s Step) clone() Step {
	c := s
	if s.Params != nil {
		c.Params = make(map[string]string, len(s.Params))
		for k, v := range s.Params {
			c.Params[k] = v
		}
	}
	if s.Outcome != nil {
		o := *s.Outcome
		o.Refs = append([]string(nil), s.Outcome.Refs...)
		c.Outcome = &o
	}
	return c
}

// StepOutcome records what happened when a step ran.
type StepOutcome struct {
	OK     bool     `yaml:"ok" json:"ok"`
	Result string   `yaml:"result,omitempty" json:"result,omitempty"`
	Refs   []string `yaml:"refs,omitempty" json:"refs,omitempty"`
	Error  string   `yaml:"error,omitempty" json:"error,omitempty"`
}
