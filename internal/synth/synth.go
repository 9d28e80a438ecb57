// Package synth runs a Pulumi program against an in-memory engine and
// records what it would ask a real engine to create. No cloud credentials are
// needed and the result is the same on every run.
package synth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	DefaultStack  = "dev"
	defaultRegion = "us-east-1"
)

// Builder declares resources on ctx and returns the stack outputs.
type Builder func(ctx *pulumi.Context) (pulumi.Map, error)

type Options struct {
	Project string
	Stack   string
	// Config is the stack configuration with fully qualified keys, e.g.
	// "aws:region" or "<project>:vpcCidr".
	Config map[string]string
	// OutputTimeout bounds the wait for stack outputs to resolve.
	OutputTimeout time.Duration
}

func (o Options) region() string {
	if r := o.Config[o.Project+":region"]; r != "" {
		return r
	}
	if r := o.Config["aws:region"]; r != "" {
		return r
	}
	return defaultRegion
}

// Synth runs build and returns the resulting plan.
func Synth(build Builder, opts Options) (*Plan, error) {
	if opts.Project == "" {
		return nil, errors.New("project is required")
	}
	if opts.Stack == "" {
		opts.Stack = DefaultStack
	}
	if opts.OutputTimeout == 0 {
		opts.OutputTimeout = 30 * time.Second
	}

	rec := newRecorder(opts.region())

	var (
		mu      sync.Mutex
		outputs map[string]interface{}
		done    = make(chan struct{})
	)
	program := func(ctx *pulumi.Context) error {
		result, err := build(ctx)
		if err != nil {
			return err
		}
		result.ToMapOutput().ApplyT(func(resolved map[string]interface{}) map[string]interface{} {
			mu.Lock()
			outputs = resolved
			mu.Unlock()
			close(done)
			return resolved
		})
		return nil
	}

	err := pulumi.RunErr(program,
		pulumi.WithMocks(opts.Project, opts.Stack, rec),
		withConfig(opts.Config),
	)
	rec.mu.Lock()
	for _, e := range rec.errs {
		err = multierror.Append(err, e)
	}
	rec.mu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case <-done:
	case <-time.After(opts.OutputTimeout):
		return nil, fmt.Errorf("stack outputs did not resolve within %s", opts.OutputTimeout)
	}

	mu.Lock()
	defer mu.Unlock()
	return newPlan(opts.Project, opts.Stack, rec, outputs)
}

func withConfig(cfg map[string]string) pulumi.RunOption {
	return func(info *pulumi.RunInfo) {
		if len(cfg) == 0 {
			return
		}
		if info.Config == nil {
			info.Config = map[string]string{}
		}
		for k, v := range cfg {
			info.Config[k] = v
		}
	}
}
