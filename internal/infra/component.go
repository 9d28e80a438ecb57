package infra

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// componentType builds the type token of one of this program's components.
func componentType(module, typ string) string {
	return fmt.Sprintf("%s:%s:%s", ProjectName, module, typ)
}

// childName scopes a child's logical name under its component so that
// siblings of different components never collide.
func childName(parent, child string) string {
	return parent + "-" + child
}

func invokeOptions(provider pulumi.ProviderResource) []pulumi.InvokeOption {
	if provider == nil {
		return nil
	}
	return []pulumi.InvokeOption{pulumi.Provider(provider)}
}
