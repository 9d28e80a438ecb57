package infra

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
	"github.com/hashicorp/go-multierror"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// ProjectName is the Pulumi project every stack of this program belongs to.
const ProjectName = "ecs-microservices"

const (
	defaultRegion            = "us-east-1"
	defaultVpcCidr           = "10.255.0.0/16"
	defaultDatabasePrivateIp = "10.255.48.10"
	defaultImage             = "nicholasjackson/fake-service:v0.23.1"
)

// Vars holds the values every component is parameterised by. It is the Go
// counterpart of a variables.tf file: fixed defaults, optionally overridden
// by stack configuration.
type Vars struct {
	Region            string
	VpcCidr           string
	DefaultTags       map[string]string
	DatabasePrivateIp string

	Image                  string
	PinImageDigest         bool
	SmokeTest              bool
	AttachMonitoringPolicy bool
}

func DefaultVars() Vars {
	return Vars{
		Region:  defaultRegion,
		VpcCidr: defaultVpcCidr,
		DefaultTags: map[string]string{
			"project":     ProjectName,
			"environment": "dev",
		},
		DatabasePrivateIp: defaultDatabasePrivateIp,
		Image:             defaultImage,
	}
}

// LoadVars overlays the stack configuration on top of DefaultVars.
func LoadVars(ctx *pulumi.Context) (Vars, error) {
	vars := DefaultVars()
	cfg := config.New(ctx, "")

	if region := cfg.Get("region"); region != "" {
		vars.Region = region
	} else if region := config.New(ctx, "aws").Get("region"); region != "" {
		vars.Region = region
	}
	if v := cfg.Get("vpcCidr"); v != "" {
		vars.VpcCidr = v
	}
	if v := cfg.Get("databasePrivateIp"); v != "" {
		vars.DatabasePrivateIp = v
	}
	if v := cfg.Get("image"); v != "" {
		vars.Image = v
	}
	if cfg.Get("tags") != "" {
		var tags map[string]string
		if err := cfg.GetObject("tags", &tags); err != nil {
			return Vars{}, fmt.Errorf("Error reading tags: %w", err)
		}
		vars.DefaultTags = tags
	}
	vars.PinImageDigest = cfg.GetBool("pinImageDigest")
	vars.SmokeTest = cfg.GetBool("smokeTest")
	vars.AttachMonitoringPolicy = cfg.GetBool("attachMonitoringPolicy")

	return vars, vars.Validate()
}

// NameTagPrefix mirrors lookup(default_tags, "project", "").
func (v Vars) NameTagPrefix() string {
	return v.DefaultTags["project"]
}

// Validate reports every problem with the values at once.
func (v Vars) Validate() error {
	var result *multierror.Error

	if v.Region == "" {
		result = multierror.Append(result, fmt.Errorf("Error validating config: region must not be empty"))
	}
	if v.Image == "" {
		result = multierror.Append(result, fmt.Errorf("Error validating config: image must not be empty"))
	}

	// the database check is only meaningful once the vpc block can be split
	vpcOk := false
	_, vpcNet, err := net.ParseCIDR(v.VpcCidr)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("Error validating config: vpc cidr %q: %w", v.VpcCidr, err))
	} else if vpcNet.IP.To4() == nil {
		result = multierror.Append(result, fmt.Errorf("Error validating config: vpc cidr %q is not an IPv4 block", v.VpcCidr))
	} else if ones, _ := vpcNet.Mask.Size(); ones+subnetNewBits > 28 {
		result = multierror.Append(result, fmt.Errorf("Error validating config: vpc cidr %q is too small to split into /%d subnets", v.VpcCidr, ones+subnetNewBits))
	} else {
		vpcOk = true
	}

	ip := net.ParseIP(v.DatabasePrivateIp)
	if ip == nil {
		result = multierror.Append(result, fmt.Errorf("Error validating config: database private ip %q is not an IP address", v.DatabasePrivateIp))
	} else if vpcOk {
		// the database lives in the first private subnet
		private, err := cidr.Subnet(vpcNet, subnetNewBits, len(zoneSuffixes))
		if err == nil && !private.Contains(ip) {
			result = multierror.Append(result, fmt.Errorf("Error validating config: database private ip %s is outside the first private subnet %s", ip, private))
		}
	}

	return result.ErrorOrNil()
}

func (v Vars) tags(name string) pulumi.StringMap {
	return pulumi.StringMap{
		"Name": pulumi.String(fmt.Sprintf("%s-%s", v.NameTagPrefix(), name)),
	}
}
