package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

// tripExecutionTimeout caps a whole trip workflow, retries included.
const tripExecutionTimeout = 2 * time.Minute

// WorkflowID derives the workflow ID from the trip ID, so a redelivered
// request joins the run already in progress.
func WorkflowID(tripID string) string {
	return "trip-" + tripID
}

// Starter starts one TripWorkflow per queued trip request.
type Starter struct {
	Client    client.Client
	TaskQueue string
}

// Start implements the handler for ports.EventSubscriber.SubscribeTripRequests.
func (s *Starter) Start(ctx context.Context, id string, req domain.TripRequest) error {
	opts := client.StartWorkflowOptions{
		ID:                       WorkflowID(id),
		TaskQueue:                s.TaskQueue,
		WorkflowExecutionTimeout: tripExecutionTimeout,
	}
	if _, err := s.Client.ExecuteWorkflow(ctx, opts, TripWorkflow, TripWorkflowInput{TripID: id, Request: req}); err != nil {
		return fmt.Errorf("start trip workflow %s: %w", id, err)
	}
	return nil
}
