package infra

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
)

const (
	subnetNewBits     = 4
	ipv6SubnetNewBits = 8
)

var zoneSuffixes = []string{"a", "b", "c"}

func availabilityZones(region string) []string {
	azs := make([]string, 0, len(zoneSuffixes))
	for _, zone := range zoneSuffixes {
		azs = append(azs, region+zone)
	}
	return azs
}

// subnetCidr behaves like Terraform's cidrsubnet(base, newBits, index).
func subnetCidr(base string, newBits, index int) (string, error) {
	_, network, err := net.ParseCIDR(base)
	if err != nil {
		return "", fmt.Errorf("Error parsing cidr %q: %w", base, err)
	}
	subnet, err := cidr.Subnet(network, newBits, index)
	if err != nil {
		return "", fmt.Errorf("Error splitting %s into subnet %d of /%d: %w", base, index, newBits, err)
	}
	return subnet.String(), nil
}

// subnetCidrs splits the VPC block into one public and one private subnet per
// zone. Public subnets take indices [0, zones), private ones [zones, 2*zones).
func subnetCidrs(vpcCidr string, zones int) (public []string, private []string, err error) {
	_, vpcNet, err := net.ParseCIDR(vpcCidr)
	if err != nil {
		return nil, nil, fmt.Errorf("Error parsing cidr %q: %w", vpcCidr, err)
	}

	var nets []*net.IPNet
	for i := 0; i < 2*zones; i++ {
		block, err := subnetCidr(vpcCidr, subnetNewBits, i)
		if err != nil {
			return nil, nil, err
		}
		_, n, _ := net.ParseCIDR(block)
		nets = append(nets, n)
		if i < zones {
			public = append(public, block)
		} else {
			private = append(private, block)
		}
	}

	if err := cidr.VerifyNoOverlap(nets, vpcNet); err != nil {
		return nil, nil, fmt.Errorf("Error checking subnets of %s: %w", vpcCidr, err)
	}
	return public, private, nil
}
