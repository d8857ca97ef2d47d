package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"askbase/internal/domain/entities"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		app, err := buildStack()
		if err != nil {
			return err
		}
		defer app.close()

		snap, err := app.initialSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		plan, err := app.answer.Answer(cmd.Context(), question, snap)
		if err != nil {
			return err
		}

		printPlan(plan)
		return nil
	},
}

func printPlan(plan entities.ResponsePlan) {
	label := color.New(color.FgRed)
	switch plan.Confidence {
	case entities.ConfidenceHigh:
		label = color.New(color.FgGreen)
	case entities.ConfidenceMedium:
		label = color.New(color.FgYellow)
	case entities.ConfidenceLow:
		label = color.New(color.FgYellow, color.Faint)
	}

	label.Printf("[%s / %s]\n", plan.Kind, plan.Confidence)
	fmt.Println(plan.Text)
	if len(plan.EntryIDs) > 0 {
		color.Cyan("sources: %s", strings.Join(plan.EntryIDs, ", "))
	}
}
