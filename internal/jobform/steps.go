package jobform

// Step numbers of the default job posting form.
const (
	StepBasicInfo    = 1
	StepDescription  = 2
	StepRequirements = 3
	StepQuestions    = 4
	StepReview       = 5
)

// StepDefinition names one page of the form.
type StepDefinition struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// DefaultSteps is the step list of the job posting form.
var DefaultSteps = []StepDefinition{
	{Number: StepBasicInfo, Title: "Basic Information"},
	{Number: StepDescription, Title: "Job Description"},
	{Number: StepRequirements, Title: "Application Requirements"},
	{Number: StepQuestions, Title: "Custom Questions"},
	{Number: StepReview, Title: "Review & Publish"},
}

// Step is a step definition plus its derived active flag.
type Step struct {
	StepDefinition
	Active bool `json:"active"`
}

// StepValidatorFunc validates a single step against the current form data.
type StepValidatorFunc func(step int) Result

// Controller owns the current step pointer. It never talks to the server.
type Controller struct {
	steps    []StepDefinition
	current  int
	errors   FieldErrors
	validate StepValidatorFunc
}

// NewController returns a controller positioned on step 1. A nil step list
// uses DefaultSteps.
func NewController(steps []StepDefinition, validate StepValidatorFunc) *Controller {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	return &Controller{
		steps:    steps,
		current:  1,
		validate: validate,
	}
}

// Current returns the current step number.
func (c *Controller) Current() int {
	return c.current
}

// Last returns N, the number of the final step.
func (c *Controller) Last() int {
	return len(c.steps)
}

// Errors returns the errors surfaced by the last failed transition.
func (c *Controller) Errors() FieldErrors {
	return c.errors
}

// Steps returns the step list with active flags for the current position.
func (c *Controller) Steps() []Step {
	out := make([]Step, len(c.steps))
	for i, def := range c.steps {
		out[i] = Step{StepDefinition: def, Active: i+1 <= c.current}
	}
	return out
}

// GoNext validates the current step and advances when it is valid. The
// pointer never moves past the last step.
func (c *Controller) GoNext() Result {
	res := c.check(c.current)
	if !res.Valid {
		c.errors = res.Errors
		return res
	}
	c.errors = nil
	if c.current < c.Last() {
		c.current++
	}
	return res
}

// GoBack moves one step back without validation, stopping at step 1.
func (c *Controller) GoBack() {
	c.errors = nil
	if c.current > 1 {
		c.current--
	}
}

// GoTo jumps to step. Backward jumps are unconditional. Forward jumps
// validate every step being skipped and stop on the first invalid one.
func (c *Controller) GoTo(step int) Result {
	if step < 1 || step > c.Last() {
		return Result{Valid: false, Errors: FieldErrors{"step": "Step out of range"}}
	}

	for c.current < step {
		res := c.check(c.current)
		if !res.Valid {
			c.errors = res.Errors
			return res
		}
		c.current++
	}

	c.errors = nil
	c.current = step
	return Result{Valid: true}
}

// Restore positions the controller on step without validation. It is used
// when a saved form is reopened; out-of-range values are clamped.
func (c *Controller) Restore(step int) {
	c.errors = nil
	switch {
	case step < 1:
		c.current = 1
	case step > c.Last():
		c.current = c.Last()
	default:
		c.current = step
	}
}

// Reset returns to step 1.
func (c *Controller) Reset() {
	c.Restore(1)
}

func (c *Controller) check(step int) Result {
	if c.validate == nil {
		return Result{Valid: true}
	}
	return c.validate(step)
}
