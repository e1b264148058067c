package release

import (
	"context"
	"fmt"
	"sync"

	"ThqRel/logger"
)

// BulkOp is the transition a bulk request applies to every id.
type BulkOp string

const (
	BulkPublish BulkOp = "publish"
	BulkDelete  BulkOp = "delete"
)

// BulkOutcome is the result of one item of a bulk operation. Items succeed
// or fail independently; a batch never reports a single aggregate verdict.
type BulkOutcome struct {
	ID        string `json:"id"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// BulkTransition applies op to every id on behalf of a moderator. Ids are
// deduplicated; outcomes come back in input order. Each item is one
// independent CAS-guarded transition, processed by a bounded worker pool,
// and an error on one item never aborts the others.
func (s *Service) BulkTransition(ctx context.Context, actor Actor, ids []string, op BulkOp) ([]BulkOutcome, error) {
	if !actor.IsModerator() {
		return nil, ErrPermissionDenied
	}
	if op != BulkPublish && op != BulkDelete {
		return nil, fmt.Errorf("unsupported bulk operation %q", op)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}

	results := make([]BulkOutcome, len(ids))
	jobs := make(chan int)

	workers := s.bulkWorkers
	if workers > len(ids) {
		workers = len(ids)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.bulkOne(ctx, actor, ids[idx], op)
			}
		}()
	}
	for idx := range ids {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Succeeded {
			succeeded++
		}
	}
	logger.Info("bulk transition finished",
		logger.String("op", string(op)),
		logger.Int("total", len(ids)),
		logger.Int("succeeded", succeeded),
		logger.Int64("actorId", actor.ID))
	return results, nil
}

func (s *Service) bulkOne(ctx context.Context, actor Actor, id string, op BulkOp) BulkOutcome {
	var err error
	switch op {
	case BulkPublish:
		_, err = s.Publish(ctx, actor, id)
	case BulkDelete:
		err = s.DeleteRelease(ctx, actor, id)
	}
	if err != nil {
		return BulkOutcome{ID: id, Error: err.Error()}
	}
	return BulkOutcome{ID: id, Succeeded: true}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
