// internal/common/camunda/job.go
package camunda

import (
	"context"
	"fmt"

	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// DecodeVariables validates the job's variables against v and, when they
// pass, decodes them into dest.
func DecodeVariables(job entities.Job, v *validation.Validator, dest interface{}) error {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	if result := v.Validate(variables); !result.Valid {
		return errors.NewValidationFailedError(result.FieldErrors())
	}

	if err := job.GetVariablesAs(dest); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("failed to decode job variables: %v", err))
	}
	return nil
}

// CompleteJob completes the job with output serialized as process variables.
// Transient gateway failures are retried under CompleteRetryConfig.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("build complete command for job %d: %v", job.GetKey(), err))
	}
	return Retry(ctx, CompleteRetryConfig, "complete job", func(ctx context.Context) error {
		_, err := request.Send(ctx)
		return err
	})
}
