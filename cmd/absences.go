package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hr-portal/internal/absence"
	"github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

// cliClientID keys the review screen mounted by one CLI invocation.
const cliClientID = "cli"

var absencesCmd = &cobra.Command{
	Use:   "absences",
	Short: "Review pending absence requests",
}

var absencesPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending absence requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		review, ctx, err := newReviewService(cmd)
		if err != nil {
			return err
		}
		page := review.Mount(ctx, cliClientID)
		return printAbsences(cmd.OutOrStdout(), page)
	},
}

var absencesApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a pending absence request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideAbsence(cmd, args[0], (*absence.ReviewService).Approve)
	},
}

var absencesRejectCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a pending absence request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideAbsence(cmd, args[0], (*absence.ReviewService).Reject)
	},
}

var bearerToken string

func init() {
	absencesCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "credential forwarded to the HR backend")

	absencesCmd.AddCommand(absencesPendingCmd)
	absencesCmd.AddCommand(absencesApproveCmd)
	absencesCmd.AddCommand(absencesRejectCmd)
}

func newReviewService(cmd *cobra.Command) (*absence.ReviewService, context.Context, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	lg := initLogger(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = rrhh.WithBearer(ctx, bearerToken)

	client := rrhh.NewClient(rrhh.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, lg)
	return absence.NewReviewService(client, nil, logger.Discard()), ctx, nil
}

type decision func(*absence.ReviewService, context.Context, string, int64) (view.Page[absence.AbsenceRow], error)

// decideAbsence mounts the review first so the id is checked against the pending list.
func decideAbsence(cmd *cobra.Command, rawID string, decide decision) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid absence id %q", rawID)
	}

	review, ctx, err := newReviewService(cmd)
	if err != nil {
		return err
	}
	if page := review.Mount(ctx, cliClientID); page.State == view.StateError {
		return fmt.Errorf("%s", page.Error.Message)
	}

	page, err := decide(review, ctx, cliClientID, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "absence %d updated\n", id)
	return printAbsences(cmd.OutOrStdout(), page)
}

func printAbsences(out io.Writer, page view.Page[absence.AbsenceRow]) error {
	switch page.State {
	case view.StateError:
		return fmt.Errorf("%s", page.Error.Message)
	case view.StateEmpty:
		fmt.Fprintln(out, "No hay solicitudes pendientes.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMPLEADO\tTIPO\tINICIO\tFIN\tMOTIVO")
	for _, r := range page.Rows {
		employee := r.EmployeeName
		if employee == "" {
			employee = strconv.FormatInt(r.EmployeeID, 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, employee, r.Kind, r.StartDate, r.EndDate, r.Reason)
	}
	return w.Flush()
}
