package main

import (
	"github.com/ridwanfathin/invoicing-service/cmd/invoicectl/cmd"
)

func main() {
	cmd.Execute()
}
