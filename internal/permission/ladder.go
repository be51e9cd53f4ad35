package permission

// Step is the highest-priority unmet requirement.
type Step int

const (
	StepEnableAccessibility Step = iota + 1
	StepRepairAccessibility
	StepNotification
	StepDeviceAdmin
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepEnableAccessibility:
		return "enable_accessibility"
	case StepRepairAccessibility:
		return "repair_accessibility"
	case StepNotification:
		return "notification"
	case StepDeviceAdmin:
		return "device_admin"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// Prompt is the dialog a step asks the user to answer.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptEnableAccessibility
	PromptRepairAccessibility
)

func (p Prompt) String() string {
	switch p {
	case PromptEnableAccessibility:
		return "enable_accessibility"
	case PromptRepairAccessibility:
		return "repair_accessibility"
	default:
		return "none"
	}
}

// Prompt returns the dialog shown while s is the current step. The
// notification and device admin steps use platform screens instead.
func (s Step) Prompt() Prompt {
	switch s {
	case StepEnableAccessibility:
		return PromptEnableAccessibility
	case StepRepairAccessibility:
		return PromptRepairAccessibility
	default:
		return PromptNone
	}
}

// GateState holds the four inputs of the ladder.
type GateState struct {
	AccessibilityApproved bool
	AccessibilityRunning  bool
	NotificationStored    bool
	DeviceAdminStored     bool
}

// Decide walks the ladder from the top and returns the first unmet step.
func Decide(g GateState) Step {
	switch {
	case !g.AccessibilityApproved:
		return StepEnableAccessibility
	case !g.AccessibilityRunning:
		return StepRepairAccessibility
	case !g.NotificationStored:
		return StepNotification
	case !g.DeviceAdminStored:
		return StepDeviceAdmin
	default:
		return StepDone
	}
}
