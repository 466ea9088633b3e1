package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evanschultz/boardwalk/internal/adapters/server"
	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/config"
	"github.com/evanschultz/boardwalk/internal/domain"
)

func newBoardsCommand(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withSession(cmd, "boards", func(ctx context.Context, s *session) error {
				boards, err := s.svc.ListBoards(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					if boards == nil {
						boards = []domain.BoardSummary{}
					}
					return writeJSON(cmd.OutOrStdout(), map[string]any{"boards": boards})
				}
				return printBoards(cmd.OutOrStdout(), boards)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.AddCommand(newBoardsCreateCommand(o))
	return cmd
}

func newBoardsCreateCommand(o *rootOptions) *cobra.Command {
	var in app.CreateBoardInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withSession(cmd, "boards create", func(ctx context.Context, s *session) error {
				if err := s.svc.CreateBoard(ctx, in); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "created board %q\n", strings.TrimSpace(in.Name))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "board name")
	cmd.Flags().StringVar(&in.Description, "description", "", "board description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBoardCommand(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "board <boardId>",
		Short: "Print a board's lists and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, "board", func(ctx context.Context, s *session) error {
				board, err := s.svc.GetBoard(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"board": board})
				}
				return printBoard(cmd.OutOrStdout(), board)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newListsCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage lists",
	}
	var name string
	add := &cobra.Command{
		Use:   "add <boardId>",
		Short: "Append a list to a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, "lists add", func(ctx context.Context, s *session) error {
				if err := s.svc.CreateList(ctx, app.CreateListInput{BoardID: args[0], Name: name}); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "added list %q\n", strings.TrimSpace(name))
				return err
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "list name")
	_ = add.MarkFlagRequired("name")
	cmd.AddCommand(add)
	return cmd
}

func newCardsCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage cards",
	}
	cmd.AddCommand(newCardsAddCommand(o), newCardsEditCommand(o), newCardsMoveCommand(o))
	return cmd
}

func newCardsAddCommand(o *rootOptions) *cobra.Command {
	var title, description, priority, status, due string
	cmd := &cobra.Command{
		Use:   "add <boardId> <listId>",
		Short: "Add a card to the end of a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, "cards add", func(ctx context.Context, s *session) error {
				dueDate, err := app.ParseDueInput(due)
				if err != nil {
					return err
				}
				err = s.svc.CreateCard(ctx, app.CreateCardInput{
					BoardID:     args[0],
					ListID:      args[1],
					Title:       title,
					Description: description,
					Priority:    domain.Priority(priority),
					Status:      domain.Status(status),
					DueDate:     dueDate,
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "added card %q\n", strings.TrimSpace(title))
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "card title")
	f.StringVar(&description, "description", "", "markdown description")
	f.StringVar(&priority, "priority", "", "Low, Medium, High or Critical")
	f.StringVar(&status, "status", "", "Backlog, Todo, In Progress, Review, Done or Blocked")
	f.StringVar(&due, "due", "", "due date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newCardsEditCommand(o *rootOptions) *cobra.Command {
	var title, description, priority, status, due string
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "edit <boardId> <cardId>",
		Short: "Edit a card. Flags left unset keep the card's current value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, "cards edit", func(ctx context.Context, s *session) error {
				f := cmd.Flags()
				card, err := s.svc.EditCard(ctx, app.EditCardInput{
					BoardID:     args[0],
					CardID:      args[1],
					Title:       changedString(f.Changed("title"), title),
					Description: changedString(f.Changed("description"), description),
					Priority:    changedString(f.Changed("priority"), priority),
					Status:      changedString(f.Changed("status"), status),
					Due:         changedString(f.Changed("due"), due),
					ClearDue:    clearDue,
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated card %s\n", card.ID)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&description, "description", "", "new markdown description")
	f.StringVar(&priority, "priority", "", "new priority")
	f.StringVar(&status, "status", "", "new status")
	f.StringVar(&due, "due", "", "new due date YYYY-MM-DD")
	f.BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newCardsMoveCommand(o *rootOptions) *cobra.Command {
	var toListID string
	var position int
	cmd := &cobra.Command{
		Use:   "move <boardId> <cardId>",
		Short: "Move a card to a list position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, "cards move", func(ctx context.Context, s *session) error {
				res, err := s.svc.MoveCard(ctx, app.MoveCardInput{
					BoardID:  args[0],
					CardID:   args[1],
					ToListID: toListID,
					Position: position,
				})
				out := cmd.OutOrStdout()
				if err != nil {
					if res.Sent && res.Board.ID != "" {
						_ = printArrangement(out, res.Board, args[1], toListID)
					}
					return err
				}
				if !res.Sent {
					_, err = fmt.Fprintln(out, "unchanged")
					return err
				}
				_, err = fmt.Fprintf(out, "moved %s to %s at position %d\n", args[1], toListID, position)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&toListID, "to", "", "destination list id")
	cmd.Flags().IntVar(&position, "position", 0, "destination position")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newInviteCommand(o *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "invite <boardId>",
		Short: "Invite a member to a board by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, "invite", func(ctx context.Context, s *session) error {
				if err := s.svc.InviteMember(ctx, app.InviteMemberInput{BoardID: args[0], Email: email}); err != nil {
					return fmt.Errorf("%s: %w", app.ServerMessage(err, "Failed to invite member"), err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "invited %s\n", strings.TrimSpace(email))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "member email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRecommendationsCommand(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "recommendations <boardId>",
		Aliases: []string{"recs"},
		Short:   "Print the server's alerts and suggestions for a board",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, "recommendations", func(ctx context.Context, s *session) error {
				recs, err := s.svc.Recommendations(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					if recs == nil {
						recs = []domain.Recommendation{}
					}
					return writeJSON(cmd.OutOrStdout(), map[string]any{"recommendations": recs})
				}
				return printRecommendations(cmd.OutOrStdout(), recs)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newServeCommand(o *rootOptions) *cobra.Command {
	var cfg server.Config
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board service over MCP and a local JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withSession(cmd, "serve", func(ctx context.Context, s *session) error {
				cfg.ServerName = s.appName
				cfg.ServerVersion = version
				return server.Run(ctx, cfg, server.Dependencies{Boards: s.svc, Logger: s.logger})
			})
		},
	}
	cmd.Flags().StringVar(&cfg.HTTPBind, "http", "127.0.0.1:8090", "listen address")
	cmd.Flags().StringVar(&cfg.MCPEndpoint, "mcp-endpoint", "/mcp", "MCP endpoint path")
	cmd.Flags().StringVar(&cfg.APIEndpoint, "api-endpoint", "/api/v1", "JSON API endpoint path")
	return cmd
}

func newPathsCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, configPath, err := o.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", o.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", o.devMode)
			_, _ = fmt.Fprintf(out, "app_dir: %s\n", paths.AppDir)
			_, _ = fmt.Fprintf(out, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newLoginCommand(o *rootOptions) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a bearer token to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, configPath, err := o.resolvePaths()
			if err != nil {
				return err
			}
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("--token is required")
			}
			if err := config.UpsertAPIToken(configPath, token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "token saved to %s\n", configPath)
			if name := tokenDisplayName(token); name != "" {
				_, _ = fmt.Fprintf(out, "signed in as %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	return cmd
}

// changedString returns &v when the flag was set.
func changedString(changed bool, v string) *string {
	if !changed {
		return nil
	}
	return &v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func printBoards(w io.Writer, boards []domain.BoardSummary) error {
	if len(boards) == 0 {
		_, err := fmt.Fprintln(w, "No boards yet. Create one with `boardwalk boards create --name NAME`.")
		return err
	}
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tOWNER\tMEMBERS")
	for _, b := range boards {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.Owner.Label(), b.MemberCountLabel())
	}
	return tw.Flush()
}

func printBoard(w io.Writer, board domain.Board) error {
	_, _ = fmt.Fprintf(w, "%s (%s)\n", board.Name, board.ID)
	if d := strings.TrimSpace(board.Description); d != "" {
		_, _ = fmt.Fprintln(w, d)
	}
	for _, list := range board.Lists {
		cards := list.VisibleCards()
		_, _ = fmt.Fprintf(w, "\n%s [%s] (%d)\n", list.Name, list.ID, len(cards))
		tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
		for _, c := range cards {
			due := domain.FormatDueDate(c.DueDate)
			if due != "" {
				due = "due " + due
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s %s\t%s\t%s\n",
				c.ID, c.Status.OrDefault().Glyph(), c.Title, c.Priority.OrDefault(), due)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// printArrangement prints the lists touched by a rejected move as the server has them.
func printArrangement(w io.Writer, board domain.Board, cardID, toListID string) error {
	_, _ = fmt.Fprintln(w, "server arrangement:")
	for _, list := range board.Lists {
		if list.ID != toListID && list.CardIndex(cardID) < 0 {
			continue
		}
		ids := []string{}
		for _, c := range list.VisibleCards() {
			ids = append(ids, c.ID)
		}
		if _, err := fmt.Fprintf(w, "  %s [%s]: %s\n", list.Name, list.ID, strings.Join(ids, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func printRecommendations(w io.Writer, recs []domain.Recommendation) error {
	_, _ = fmt.Fprintf(w, "Smart Alerts & Suggestions (%d)\n", len(recs))
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "Nothing needs attention right now.")
		return err
	}
	for _, r := range recs {
		header := strings.TrimSpace(r.Type.Glyph() + " " + r.Type.Label())
		_, _ = fmt.Fprintf(w, "\n[%s] %s: %s\n", r.Severity.Label(), header, r.CardTitle)
		if reason := strings.TrimSpace(r.Reason); reason != "" {
			_, _ = fmt.Fprintf(w, "  %s\n", reason)
		}
		if action := strings.TrimSpace(r.Action); action != "" {
			_, _ = fmt.Fprintf(w, "  → %s\n", action)
		}
	}
	return nil
}
