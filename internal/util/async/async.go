package async

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes multiple tasks in parallel and returns the first error
// encountered, wrapped with the failing task's name. The context passed to the
// tasks is cancelled as soon as one task fails; RunParallel still waits for
// every task to return.
//
// A limit above zero bounds the number of tasks running at once.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "configmaps", Func: listConfigMaps},
//	    {Name: "statefulsets", Func: listStatefulSets},
//	}
//	if err := RunParallel(ctx, tasks, 0); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Func(gctx); err != nil {
				return fmt.Errorf("%s: %w", task.Name, err)
			}
			return nil
		})
	}

	return g.Wait()
}
