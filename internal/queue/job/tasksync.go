package job

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/data/cryptoutil"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// TaskSync removes tasks from first-party aggregators that are unknown locally, then reschedules itself.
type TaskSync struct{}

func (*TaskSync) Type() string { return TypeTaskSync }

type remoteTasks struct {
	agg    *model.Aggregator
	client core.AggregatorAPI
	ids    []string
}

type staleTask struct {
	remote *remoteTasks
	id     string
}

func (j *TaskSync) Perform(ctx context.Context, st *State, tx core.QueueTx) (*model.EnqueueJob, error) {
	now := tx.Now()
	if st.Aggregators == nil {
		return nil, notConfigured("aggregator client factory")
	}
	if st.Encryptor == nil {
		return nil, notConfigured("encryptor")
	}
	aggs, err := st.Records.FirstPartyAggregators(ctx, tx.SQL())
	if err != nil {
		return nil, dbError("list aggregators", err)
	}

	remotes, err := fetchRemoteTasks(ctx, st, aggs)
	if err != nil {
		return nil, err
	}

	// The transaction is not safe for concurrent use, so the local lookups run serially.
	var stale []staleTask
	for _, r := range remotes {
		for _, id := range r.ids {
			ok, existsErr := st.Records.TaskExists(ctx, tx.SQL(), r.agg.ID, id)
			if existsErr != nil {
				return nil, dbError("check task", existsErr)
			}
			if !ok {
				stale = append(stale, staleTask{remote: r, id: id})
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.TaskSyncConcurrency)
	for _, s := range stale {
		g.Go(func() error {
			if delErr := s.remote.client.DeleteTask(gctx, s.id); delErr != nil {
				return clientError(fmt.Sprintf("delete task %s on aggregator %s", s.id, s.remote.agg.ID), delErr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.Logger.InfoContext(ctx, "task sync", "aggregators", len(aggs), "deleted_tasks", len(stale))
	return EnqueueAt(j, st.Schedules.TaskSync.Next(now))
}

func fetchRemoteTasks(ctx context.Context, st *State, aggs []*model.Aggregator) ([]*remoteTasks, error) {
	out := make([]*remoteTasks, len(aggs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.TaskSyncConcurrency)
	for i, agg := range aggs {
		g.Go(func() error {
			token, err := st.Encryptor.Decrypt(cryptoutil.AggregatorTokenAAD(agg.ID), agg.EncryptedBearerToken)
			if err != nil {
				return &Error{Kind: KindClientOther, Message: "decrypt bearer token for aggregator " + agg.ID, Err: err}
			}
			client, err := st.Aggregators.ForAggregator(agg, string(token))
			if err != nil {
				return &Error{Kind: KindClientOther, Message: "aggregator client " + agg.ID, Err: err}
			}
			ids, err := client.TaskIDs(gctx)
			if err != nil {
				return clientError("list tasks on aggregator "+agg.ID, err)
			}
			out[i] = &remoteTasks{agg: agg, client: client, ids: ids}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
