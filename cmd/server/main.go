package main

import (
	"context"
	"log"

	"github.com/simp-lee/posadmin/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		log.Fatal(err)
	}
}
