package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AbduSami-bK/contact-manager/internal/extract"
	"github.com/AbduSami-bK/contact-manager/internal/slot"
	"github.com/AbduSami-bK/contact-manager/internal/store"
	"github.com/AbduSami-bK/contact-manager/internal/validate"
)

// ─── Contacts ────────────────────────────────────────────────────────────────

// contactFlags binds the editable contact fields to a command.
type contactFlags struct {
	first, last, email, phone, company, title, notes, avatar string
	street, city, state, zip, country                        string
	tags                                                     []string
}

func (f *contactFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.first, "first", "", "first name")
	fl.StringVar(&f.last, "last", "", "last name")
	fl.StringVar(&f.email, "email", "", "email address")
	fl.StringVar(&f.phone, "phone", "", "phone number")
	fl.StringVar(&f.company, "company", "", "company")
	fl.StringVar(&f.title, "title", "", "job title")
	fl.StringVar(&f.notes, "notes", "", "free-form notes")
	fl.StringVar(&f.avatar, "avatar", "", "avatar URL or path")
	fl.StringSliceVar(&f.tags, "tag", nil, "tag (repeatable or comma separated)")
	fl.StringVar(&f.street, "street", "", "street address")
	fl.StringVar(&f.city, "city", "", "city")
	fl.StringVar(&f.state, "state", "", "state or region")
	fl.StringVar(&f.zip, "zip", "", "postal code")
	fl.StringVar(&f.country, "country", "", "country")
}

func (f *contactFlags) address() *store.Address {
	addr := store.Address{Street: f.street, City: f.city, State: f.state, ZipCode: f.zip, Country: f.country}
	if addr == (store.Address{}) {
		return nil
	}
	return &addr
}

func (f *contactFlags) input() store.ContactInput {
	return store.ContactInput{
		FirstName: f.first,
		LastName:  f.last,
		Email:     f.email,
		Phone:     f.phone,
		Company:   f.company,
		JobTitle:  f.title,
		Address:   f.address(),
		Notes:     f.notes,
		Tags:      f.tags,
		Avatar:    f.avatar,
	}
}

// patch sets only the flags the user passed.
func (f *contactFlags) patch(cmd *cobra.Command) store.ContactPatch {
	var p store.ContactPatch
	set := func(name string, v string) *string {
		if cmd.Flags().Changed(name) {
			return &v
		}
		return nil
	}
	p.FirstName = set("first", f.first)
	p.LastName = set("last", f.last)
	p.Email = set("email", f.email)
	p.Phone = set("phone", f.phone)
	p.Company = set("company", f.company)
	p.JobTitle = set("title", f.title)
	p.Notes = set("notes", f.notes)
	p.Avatar = set("avatar", f.avatar)
	if cmd.Flags().Changed("tag") {
		p.Tags = append([]string{}, f.tags...)
	}
	if f.addressChanged(cmd) {
		p.Address = &store.Address{}
	}
	return p
}

func (f *contactFlags) addressChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"street", "city", "state", "zip", "country"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// overlayAddress copies the address flags the user passed onto current, so
// `update --city X` keeps the street and the other stored fields.
func (f *contactFlags) overlayAddress(cmd *cobra.Command, current *store.Address) *store.Address {
	var addr store.Address
	if current != nil {
		addr = *current
	}
	changed := cmd.Flags().Changed
	if changed("street") {
		addr.Street = f.street
	}
	if changed("city") {
		addr.City = f.city
	}
	if changed("state") {
		addr.State = f.state
	}
	if changed("zip") {
		addr.ZipCode = f.zip
	}
	if changed("country") {
		addr.Country = f.country
	}
	return &addr
}

func (a *app) newAddCmd() *cobra.Command {
	var f contactFlags
	var favorite bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			in := f.input()
			if err := validate.Input(in); err != nil {
				return err
			}
			c, err := s.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if favorite {
				if c, err = s.ToggleFavorite(cmd.Context(), c.ID); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark as favorite")
	return cmd
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one contact as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			c, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}
}

func (a *app) newListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all contacts",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			contacts, err := s.Search(cmd.Context(), store.SearchFilters{SortBy: "lastName"})
			if err != nil {
				return err
			}
			return printContacts(cmd.OutOrStdout(), contacts, asJSON)
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (a *app) newUpdateCmd() *cobra.Command {
	var f contactFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a contact; only the flags given are applied",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			p := f.patch(cmd)
			if p.IsEmpty() {
				return errors.New("nothing to update: pass at least one field flag")
			}
			if err := validate.Patch(p); err != nil {
				return err
			}
			if p.Address != nil {
				current, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				p.Address = f.overlayAddress(cmd, current.Address)
			}
			c, err := s.Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}
	f.bind(cmd)
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			ok, err := s.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return store.ErrNotFound
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		}),
	}
}

func (a *app) newSearchCmd() *cobra.Command {
	var (
		filters  store.SearchFilters
		favorite string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search contacts by text, tags and favorite state",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			if len(args) == 1 {
				filters.Search = args[0]
			}
			if favorite != "" {
				fav, err := strconv.ParseBool(favorite)
				if err != nil {
					return fmt.Errorf("--favorite must be true or false: %w", err)
				}
				filters.IsFavorite = &fav
			}
			contacts, err := s.Search(cmd.Context(), filters)
			if err != nil {
				return err
			}
			return printContacts(cmd.OutOrStdout(), contacts, asJSON)
		}),
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&filters.Tags, "tag", nil, "match any of these tags")
	fl.StringVar(&favorite, "favorite", "", "true or false")
	fl.StringVar(&filters.SortBy, "sort", "", "sort field: "+strings.Join(store.SortFields(), ", "))
	fl.StringVar(&filters.SortOrder, "order", "", "asc or desc")
	fl.BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (a *app) newFavoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle a contact's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			c, err := s.ToggleFavorite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "no longer a favorite"
			if c.IsFavorite {
				state = "now a favorite"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is %s\n", c.FirstName, c.LastName, state)
			return nil
		}),
	}
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show contact counts",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		}),
	}
}

func (a *app) newCaptureCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "capture <text|->",
		Short: "Create a contact from free text such as an email signature",
		Long:  "Pass - to read the text from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			text := args[0]
			if text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}

			in := extract.FromText(text)
			if dryRun {
				return printJSON(cmd.OutOrStdout(), in)
			}
			if err := validate.Input(in); err != nil {
				return fmt.Errorf("could not build a valid contact: %w", err)
			}
			c, err := s.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the extracted fields without saving")
	return cmd
}

// ─── Transfer ────────────────────────────────────────────────────────────────

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write all contacts as a JSON array to file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			data, err := s.ExportAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := slot.WriteFileAtomic(args[0], data, 0600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", args[0])
			return nil
		}),
	}
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Add contacts from a JSON array; existing ids are kept",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			n, err := s.ImportBatch(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d contacts\n", n)
			return nil
		}),
	}
}

func (a *app) newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every contact",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			if err := s.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All contacts deleted")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all contacts")
	return cmd
}

// ─── Backups and maintenance ─────────────────────────────────────────────────

func (a *app) newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot all contacts into the backup directory",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			name, err := s.Backup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		}),
	}
}

func (a *app) newBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			entries, err := s.ListBackups(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				enc := ""
				if e.Encrypted {
					enc = "encrypted"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Name, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Size, enc)
			}
			return tw.Flush()
		}),
	}
}

func (a *app) newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace all contacts with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, args []string) error {
			if err := s.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
			return nil
		}),
	}
}

func (a *app) newVacuumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Compact the backing database (no-op for file storage)",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			return s.Vacuum(cmd.Context())
		}),
	}
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Refresh database planner statistics (no-op for file storage)",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			return s.Analyze(cmd.Context())
		}),
	}
}

// ─── Output ──────────────────────────────────────────────────────────────────

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printContacts(w io.Writer, contacts []store.Contact, asJSON bool) error {
	if asJSON {
		return printJSON(w, contacts)
	}
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range contacts {
		star := " "
		if c.IsFavorite {
			star = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
			c.ID, star, c.FirstName, c.LastName, c.Email, c.Phone, strings.Join(c.Tags, ","))
	}
	return tw.Flush()
}
