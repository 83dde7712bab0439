package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hubnet/internal/util/retry"
)

// CreateResult wraps a created resource and the action to await, if any.
type CreateResult[T any] struct {
	Resource T
	Action   *hcloud.Action
}

// DeleteOperation deletes a resource by name. It succeeds if the resource
// does not exist; locked resources are retried.
type DeleteOperation[T any] struct {
	Name         string
	ResourceType string

	Get    func(ctx context.Context, name string) (T, *hcloud.Response, error)
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)
}

// Execute runs the delete under the client's delete timeout.
func (op *DeleteOperation[T]) Execute(ctx context.Context, client *RealClient) error {
	ctx, cancel := context.WithTimeout(ctx, client.timeouts.Delete)
	defer cancel()

	return retry.Do(ctx, func(ctx context.Context) error {
		resource, _, err := op.Get(ctx, op.Name)
		if err != nil {
			return classify(fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Name, err))
		}
		if isNil(resource) {
			return nil
		}
		if _, err := op.Delete(ctx, resource); err != nil {
			return classify(fmt.Errorf("failed to delete %s %s: %w", op.ResourceType, op.Name, err))
		}
		return nil
	}, client.retryOptions()...)
}

// EnsureOperation implements get-or-create for a named resource. Validate,
// when set, checks that an existing resource matches the desired state.
type EnsureOperation[T any, CreateOpts any] struct {
	Name         string
	ResourceType string

	Get      func(ctx context.Context, name string) (T, *hcloud.Response, error)
	Create   func(ctx context.Context, opts CreateOpts) (*CreateResult[T], *hcloud.Response, error)
	Validate func(resource T) error

	CreateOptsMapper func() (CreateOpts, error)
}

// Execute returns the existing resource or creates it. Transient API errors
// are retried; a failed validation is not.
func (op *EnsureOperation[T, CreateOpts]) Execute(ctx context.Context, client *RealClient) (T, error) {
	var out T
	err := retry.Do(ctx, func(ctx context.Context) error {
		resource, _, err := op.Get(ctx, op.Name)
		if err != nil {
			return classify(fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Name, err))
		}

		if !isNil(resource) {
			if op.Validate != nil {
				if err := op.Validate(resource); err != nil {
					return retry.Fatal(err)
				}
			}
			out = resource
			return nil
		}

		opts, err := op.CreateOptsMapper()
		if err != nil {
			return retry.Fatal(fmt.Errorf("invalid %s %s: %w", op.ResourceType, op.Name, err))
		}
		result, _, err := op.Create(ctx, opts)
		if err != nil {
			return classify(fmt.Errorf("failed to create %s %s: %w", op.ResourceType, op.Name, err))
		}
		if err := waitForAction(ctx, client.client, result.Action); err != nil {
			return fmt.Errorf("failed to wait for %s %s creation: %w", op.ResourceType, op.Name, err)
		}
		out = result.Resource
		return nil
	}, client.retryOptions()...)
	return out, err
}

func waitForAction(ctx context.Context, client *hcloud.Client, action *hcloud.Action) error {
	if action == nil {
		return nil
	}
	return client.Action.WaitFor(ctx, action)
}

// simpleCreate adapts create functions that return the resource directly.
func simpleCreate[T any, Opts any](
	createFn func(context.Context, Opts) (T, *hcloud.Response, error),
) func(context.Context, Opts) (*CreateResult[T], *hcloud.Response, error) {
	return func(ctx context.Context, opts Opts) (*CreateResult[T], *hcloud.Response, error) {
		resource, resp, err := createFn(ctx, opts)
		if err != nil {
			return nil, resp, err
		}
		return &CreateResult[T]{Resource: resource}, resp, nil
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
