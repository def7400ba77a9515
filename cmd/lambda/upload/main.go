// upload issues presigned write handles and starts the archival pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/frostlake/frostlake/internal/auth"
	intlambda "github.com/frostlake/frostlake/internal/lambda"
	"github.com/frostlake/frostlake/pkg/types"
)

// presignExpiry is how long an issued upload handle stays valid.
const presignExpiry = time.Hour

type presignRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Database string `json:"database"`
	Table    string `json:"table"`
}

type archiveFile struct {
	ObjectKey string `json:"object_key"`
	FileType  string `json:"file_type"`
}

type archiveRequest struct {
	Database string        `json:"database"`
	Table    string        `json:"table"`
	LoadType string        `json:"load_type"`
	Files    []archiveFile `json:"files"`

	// Single-file fallback fields.
	ObjectKey string `json:"object_key"`
	FileType  string `json:"file_type"`
}

type jobResult struct {
	JobID        string          `json:"job_id"`
	ExecutionRef string          `json:"execution_ref"`
	ObjectKey    string          `json:"object_key"`
	Status       types.JobStatus `json:"status"`
	Error        string          `json:"error,omitempty"`
}

func handle(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if strings.Contains(req.RouteKey, "presigned-url") || strings.Contains(req.RawPath, "presigned-url") {
		return handlePresign(ctx, d, req), nil
	}
	return handleArchive(ctx, d, req), nil
}

func handlePresign(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	var body presignRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return intlambda.RespondError(400, "invalid request body")
	}
	if body.FileName == "" {
		return intlambda.RespondError(400, "file_name is required")
	}
	applyDefaults(&body.Database, &body.Table, &body.FileType)

	objectKey := fmt.Sprintf("%s/%s/raw/%s", body.Database, body.Table, body.FileName)
	url, err := d.Store.PresignPut(ctx, objectKey, intlambda.ContentTypeFor(body.FileType), presignExpiry)
	if err != nil {
		d.Logger.Error("presigning upload failed", "key", objectKey, "error", err)
		return intlambda.RespondError(500, err.Error())
	}

	return intlambda.Respond(200, map[string]string{
		"upload_target": url,
		"object_key":    objectKey,
		"bucket":        d.Store.Bucket(),
	})
}

func handleArchive(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	identity, err := auth.FromRequest(req)
	if err != nil {
		return intlambda.RespondError(401, err.Error())
	}

	var body archiveRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return intlambda.RespondError(400, "invalid request body")
	}
	applyDefaults(&body.Database, &body.Table, &body.FileType)
	if body.LoadType == "" {
		body.LoadType = string(types.LoadFull)
	}

	files := body.Files
	if len(files) == 0 {
		if body.ObjectKey == "" {
			return intlambda.RespondError(400, "files are required")
		}
		files = []archiveFile{{ObjectKey: body.ObjectKey, FileType: body.FileType}}
	}

	var mu sync.Mutex
	results := make([]jobResult, 0, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			payload := types.StepPayload{
				JobID:     ulid.Make().String(),
				ObjectKey: f.ObjectKey,
				FileType:  f.FileType,
				Database:  body.Database,
				Table:     body.Table,
				LoadMode:  types.LoadMode(body.LoadType),
				Actor:     identity.Email,
				StartTime: time.Now().UTC(),
			}
			res := jobResult{
				JobID:     payload.JobID,
				ObjectKey: f.ObjectKey,
				Status:    types.JobRunning,
			}
			// The RUNNING record must exist before the execution launches
			// so the ledger never trails what the caller was told. The
			// pipeline re-puts the same key on start, which is harmless.
			if err := d.Ledger.Put(gctx, types.NewRunningRecord(payload)); err != nil {
				d.Logger.Warn("failed to record accepted job", "jobID", payload.JobID, "error", err)
			}
			ref, err := d.Starter.Start(gctx, payload)
			if err != nil {
				res.Status = types.JobFailed
				res.Error = err.Error()
			} else {
				res.ExecutionRef = ref
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return intlambda.Respond(200, map[string]any{
		"message": fmt.Sprintf("Pipeline started for %d file(s)", len(results)),
		"jobs":    results,
	})
}

func applyDefaults(database, table, fileType *string) {
	if *database == "" {
		*database = "default_db"
	}
	if *table == "" {
		*table = "default_table"
	}
	if *fileType == "" {
		*fileType = "csv"
	}
}

func main() {
	deps, err := intlambda.Init(context.Background())
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}
	awslambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, deps, req)
	})
}
