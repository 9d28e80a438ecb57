package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"ecs-microservices/internal/infra"
)

func main() {
	pulumi.Run(infra.Program)
}
