package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// Names shared by the worker, the trigger and the workflow.
const (
	SignalMemberUpdated = "member-updated"

	ActivityOptimizeMeetingPoint = "OptimizeMeetingPoint"
	ActivityFindVenues           = "FindVenues"
	ActivitySaveMeetingPoint     = "SaveMeetingPoint"
	ActivityPublishMeetingPoint  = "PublishMeetingPoint"

	// Error types that retrying cannot fix.
	ErrTypeInvalidArgument = "InvalidArgument"
	ErrTypeNotFound        = "NotFound"
)

const (
	// DefaultDebounce is the quiet period after the last member update
	// before a meeting point is recomputed.
	DefaultDebounce = 5 * time.Second
	// MaxDebounceWait bounds how long a stream of updates can postpone work.
	MaxDebounceWait = time.Minute
)

// MeetingPointInput is the input for the meeting-point workflow.
type MeetingPointInput struct {
	GroupID       string
	MaxIterations int
	Debounce      time.Duration
}

// WorkflowID is the single running workflow per group.
func WorkflowID(groupID string) string {
	return "meeting-point-" + groupID
}

// MeetingPointWorkflow waits until a group's member updates settle, then
// optimizes, attaches venues, saves and publishes the meeting point.
// Venue and publish failures do not fail the workflow.
func MeetingPointWorkflow(ctx workflow.Context, input MeetingPointInput) (*domain.MeetingPoint, error) {
	logger := workflow.GetLogger(ctx)
	updates := workflow.GetSignalChannel(ctx, SignalMemberUpdated)

	waitForQuiet(ctx, updates, input.Debounce)
	logger.Info("recomputing meeting point", "groupID", input.GroupID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidArgument, ErrTypeNotFound},
		},
	})

	// Step 1: optimize
	var mp domain.MeetingPoint
	err := workflow.ExecuteActivity(ctx, ActivityOptimizeMeetingPoint, input.GroupID, input.MaxIterations).Get(ctx, &mp)
	if err != nil {
		return nil, err
	}

	// Step 2: venues (best effort)
	var venues []domain.Venue
	if err := workflow.ExecuteActivity(ctx, ActivityFindVenues, &mp).Get(ctx, &venues); err != nil {
		logger.Warn("venue lookup failed", "groupID", input.GroupID, "error", err)
		venues = nil
	}
	if venues == nil {
		venues = []domain.Venue{}
	}
	mp.Venues = venues

	// Step 3: persist
	if err := workflow.ExecuteActivity(ctx, ActivitySaveMeetingPoint, &mp).Get(ctx, nil); err != nil {
		return nil, err
	}

	// Step 4: broadcast (best effort)
	if err := workflow.ExecuteActivity(ctx, ActivityPublishMeetingPoint, &mp).Get(ctx, nil); err != nil {
		logger.Warn("meeting point not broadcast", "groupID", input.GroupID, "error", err)
	}

	// Updates that arrived while computing need another pass.
	if drain(updates) > 0 {
		logger.Info("member updates arrived during computation, continuing as new", "groupID", input.GroupID)
		return nil, workflow.NewContinueAsNewError(ctx, MeetingPointWorkflow, input)
	}

	logger.Info("meeting point computed", "groupID", input.GroupID,
		"iterations", mp.IterationsUsed, "converged", mp.Converged)
	return &mp, nil
}

// waitForQuiet returns once no update arrived for debounce, or after
// MaxDebounceWait.
func waitForQuiet(ctx workflow.Context, updates workflow.ReceiveChannel, debounce time.Duration) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	deadline := workflow.Now(ctx).Add(MaxDebounceWait)

	for workflow.Now(ctx).Before(deadline) {
		timerCtx, cancel := workflow.WithCancel(ctx)
		timer := workflow.NewTimer(timerCtx, debounce)

		signalled := false
		sel := workflow.NewSelector(ctx)
		sel.AddFuture(timer, func(workflow.Future) {})
		sel.AddReceive(updates, func(c workflow.ReceiveChannel, _ bool) {
			var memberID string
			c.Receive(ctx, &memberID)
			signalled = true
		})
		sel.Select(ctx)
		cancel()

		if !signalled {
			return
		}
	}
}

func drain(updates workflow.ReceiveChannel) int {
	n := 0
	var memberID string
	for updates.ReceiveAsync(&memberID) {
		n++
	}
	return n
}
