package main

import (
	"github.com/ColonelBlimp/audiogram/cmd"
	"github.com/ColonelBlimp/audiogram/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
