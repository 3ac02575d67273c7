package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// WorkflowStarter is the part of client.Client the trigger needs.
type WorkflowStarter interface {
	SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{},
		options client.StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (client.WorkflowRun, error)
}

// Trigger turns member updates into meeting-point workflow runs, one
// running workflow per group.
type Trigger struct {
	starter       WorkflowStarter
	taskQueue     string
	maxIterations int
}

// NewTrigger creates a Trigger.
func NewTrigger(starter WorkflowStarter, taskQueue string, maxIterations int) *Trigger {
	return &Trigger{starter: starter, taskQueue: taskQueue, maxIterations: maxIterations}
}

// HandleMemberUpdated signals the group's workflow, starting it if needed.
// Its signature matches ports.EventSubscriber handlers.
func (t *Trigger) HandleMemberUpdated(ctx context.Context, event *domain.MemberUpdatedEvent) error {
	if event.GroupID == "" {
		return fmt.Errorf("%w: member update without group id", domain.ErrInvalidArgument)
	}
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(event.GroupID),
		TaskQueue: t.taskQueue,
	}
	input := MeetingPointInput{GroupID: event.GroupID, MaxIterations: t.maxIterations}

	_, err := t.starter.SignalWithStartWorkflow(ctx, opts.ID, SignalMemberUpdated, event.MemberID,
		opts, MeetingPointWorkflow, input)
	if err != nil {
		return fmt.Errorf("signal-with-start %s: %w", opts.ID, err)
	}
	return nil
}
