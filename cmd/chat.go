package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/model"
)

func newChatCmd(e *env) *cobra.Command {
	var (
		save   bool
		folder string
	)
	cmd := &cobra.Command{
		Use:   "chat [MESSAGE...]",
		Short: "Ask the SmartFactory assistant; without a message start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.openSession(cmd.Context(), save)
			if err != nil {
				return err
			}
			defer s.Close()
			userID, err := s.requireUser()
			if err != nil {
				return err
			}

			c := &chatter{
				session: s,
				userID:  userID,
				out:     cmd.OutOrStdout(),
				render:  newRenderer(),
				save:    save,
				folder:  folder,
			}
			if len(args) > 0 {
				return c.ask(cmd.Context(), strings.Join(args, " "))
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Type a question, or 'exit' to quit.")
			for {
				line, err := readLine("> ")
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				}
				if err := c.ask(cmd.Context(), line); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "add suggested dashboards to the tree")
	cmd.Flags().StringVar(&folder, "folder", "", "folder for saved suggestions (default: top level)")
	return cmd
}

type chatter struct {
	session *session
	userID  string
	out     io.Writer
	render  *glamour.TermRenderer
	save    bool
	folder  string
}

// newRenderer returns a markdown renderer, or nil when stdout is not a
// terminal and replies are printed verbatim.
func newRenderer() *glamour.TermRenderer {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		logging.Debug().Err(err).Msg("markdown renderer unavailable")
		return nil
	}
	return r
}

func (c *chatter) ask(ctx context.Context, message string) error {
	reply, err := c.session.client.Chat(ctx, c.userID, message)
	if err != nil {
		return err
	}
	c.print(reply.Text)
	if reply.Suggestion == nil {
		return nil
	}
	c.print(suggestionMarkdown(*reply.Suggestion))
	if !c.save {
		return nil
	}
	layout := dashboard.NewLayout("", reply.Suggestion.Name, reply.Suggestion.Views...)
	if layout.Name == "" {
		layout.Name = "Assistant suggestion"
	}
	added, err := c.session.store.AddDashboard(layout, c.folder)
	if err != nil {
		return fmt.Errorf("saving suggestion: %w", err)
	}
	fmt.Fprintf(c.out, "Saved dashboard %q as %s.\n", added.Name, added.ID)
	return nil
}

func (c *chatter) print(md string) {
	if c.render != nil {
		if rendered, err := c.render.Render(md); err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
	}
	fmt.Fprintln(c.out, md)
}

// suggestionMarkdown describes a suggested layout as a markdown list.
func suggestionMarkdown(s model.ChatSuggestion) string {
	var b strings.Builder
	name := s.Name
	if name == "" {
		name = "Suggested dashboard"
	}
	fmt.Fprintf(&b, "### %s\n\n", name)
	for _, v := range s.Views {
		fmt.Fprintf(&b, "- **%s** as %s\n", model.DisplayName(v.KPI), v.GraphType)
	}
	return b.String()
}
