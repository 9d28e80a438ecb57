// Package deploy drives the stack through the Pulumi Automation API with the
// program compiled into this binary.
package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optpreview"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ecs-microservices/internal/logging"
)

// OrganizationEnvVar selects the backend organisation owning the stack. When
// unset the backend's default organisation is used.
const OrganizationEnvVar = "ECS_MICROSERVICES_ORGANIZATION"

type Reference struct {
	Organization string
	Project      string
	Stack        string
	Region       string
}

// ReferenceFromEnv builds a reference whose organisation comes from
// OrganizationEnvVar. The value is not validated.
func ReferenceFromEnv(project, stack, region string) Reference {
	return Reference{
		Organization: os.Getenv(OrganizationEnvVar),
		Project:      project,
		Stack:        stack,
		Region:       region,
	}
}

// FullyQualifiedName is org/project/stack, or the bare stack name when no
// organisation is set.
func (r Reference) FullyQualifiedName() string {
	if r.Organization == "" {
		return r.Stack
	}
	return auto.FullyQualifiedStackName(r.Organization, r.Project, r.Stack)
}

type Deployer struct {
	Ref     Reference
	Program pulumi.RunFunc
	// Config is set on the stack before every operation. Keys without a
	// namespace belong to the project.
	Config map[string]string
	Logger *zap.Logger
}

func (d *Deployer) log() *zap.SugaredLogger {
	if d.Logger == nil {
		return zap.S().Named("deploy")
	}
	return d.Logger.Sugar().Named("deploy")
}

// progress streams engine output into the logger one line at a time.
func (d *Deployer) progress() *logging.Writer {
	logger := d.Logger
	if logger == nil {
		logger = zap.L()
	}
	return logging.NewWriter(logger.Named("pulumi"), zapcore.InfoLevel)
}

func (d *Deployer) stack(ctx context.Context) (auto.Stack, error) {
	if d.Ref.Stack == "" {
		return auto.Stack{}, fmt.Errorf("stack name is required")
	}
	name := d.Ref.FullyQualifiedName()
	s, err := auto.UpsertStackInlineSource(ctx, name, d.Ref.Project, d.Program)
	if err != nil {
		return auto.Stack{}, fmt.Errorf("failed to create or select stack %s: %w", name, err)
	}
	d.log().Debugf("Created/Selected stack %q", name)

	if d.Ref.Region != "" {
		if err := s.SetConfig(ctx, "aws:region", auto.ConfigValue{Value: d.Ref.Region}); err != nil {
			return auto.Stack{}, fmt.Errorf("failed to set aws:region: %w", err)
		}
	}
	if len(d.Config) > 0 {
		cfg := make(auto.ConfigMap, len(d.Config))
		for k, v := range d.Config {
			cfg[k] = auto.ConfigValue{Value: v}
		}
		if err := s.SetAllConfig(ctx, cfg); err != nil {
			return auto.Stack{}, fmt.Errorf("failed to set stack configuration: %w", err)
		}
	}
	return s, nil
}

func (d *Deployer) Up(ctx context.Context) (auto.OutputMap, error) {
	s, err := d.stack(ctx)
	if err != nil {
		return nil, err
	}
	d.log().Infof("Updating stack %s", d.Ref.FullyQualifiedName())

	w := d.progress()
	defer w.Flush()
	res, err := s.Up(ctx, optup.ProgressStreams(w))
	if err != nil {
		return nil, fmt.Errorf("failed to update stack: %w", err)
	}
	d.log().Infof("Successfully deployed stack %s", d.Ref.FullyQualifiedName())
	return res.Outputs, nil
}

func (d *Deployer) Preview(ctx context.Context) (auto.PreviewResult, error) {
	s, err := d.stack(ctx)
	if err != nil {
		return auto.PreviewResult{}, err
	}
	w := d.progress()
	defer w.Flush()
	res, err := s.Preview(ctx, optpreview.ProgressStreams(w))
	if err != nil {
		return auto.PreviewResult{}, fmt.Errorf("failed to preview stack: %w", err)
	}
	return res, nil
}

func (d *Deployer) Destroy(ctx context.Context) error {
	s, err := d.stack(ctx)
	if err != nil {
		return err
	}
	d.log().Infof("Destroying stack %s", d.Ref.FullyQualifiedName())

	w := d.progress()
	defer w.Flush()
	if _, err := s.Destroy(ctx, optdestroy.ProgressStreams(w)); err != nil {
		return fmt.Errorf("failed to destroy stack: %w", err)
	}
	d.log().Infof("Successfully destroyed stack %s", d.Ref.FullyQualifiedName())
	return nil
}

func (d *Deployer) Outputs(ctx context.Context) (auto.OutputMap, error) {
	s, err := d.stack(ctx)
	if err != nil {
		return nil, err
	}
	outputs, err := s.Outputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stack outputs: %w", err)
	}
	return outputs, nil
}
