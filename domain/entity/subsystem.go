package entity

// Subsystem identifies one of the two independently managed server processes.
type Subsystem string

const (
	SubsystemAdminServer Subsystem = "adminServer"
	SubsystemMainServer  Subsystem = "mainServer"
)

// LifecycleAction is a stop or start request.
type LifecycleAction string

const (
	ActionStop  LifecycleAction = "stop"
	ActionStart LifecycleAction = "start"
)

// LifecycleStep is one step of the restart sequence.
type LifecycleStep struct {
	Action    LifecycleAction
	Subsystem Subsystem
}

// RestartSequence is the strict stop/start order: the admin server stops
// first and starts last.
var RestartSequence = []LifecycleStep{
	{Action: ActionStop, Subsystem: SubsystemAdminServer},
	{Action: ActionStop, Subsystem: SubsystemMainServer},
	{Action: ActionStart, Subsystem: SubsystemMainServer},
	{Action: ActionStart, Subsystem: SubsystemAdminServer},
}
