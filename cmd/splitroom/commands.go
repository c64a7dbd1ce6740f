package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/service"
)

var errUsage = errors.New("usage")

type command struct {
	svc *service.RoomService
	out io.Writer
}

func (c *command) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "rooms":
		return c.rooms()
	case "create":
		return c.create(ctx, args)
	case "show":
		return c.show(args)
	case "add":
		return c.add(ctx, args)
	case "edit":
		return c.edit(ctx, args)
	case "delete":
		return c.delete(ctx, args)
	case "draft":
		return c.draft(args)
	default:
		return errUsage
	}
}

func (c *command) rooms() error {
	for _, id := range c.svc.Rooms() {
		fmt.Fprintf(c.out, "%s\t%s\n", id, c.svc.Resolve(id).Name())
	}
	return nil
}

func (c *command) create(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	room, err := c.svc.CreateRoom(ctx, args[0], args[1], args[2:])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created room %s (%s)\n", room.ID(), room.Name())
	return nil
}

func (c *command) show(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	room := c.svc.Resolve(args[0])
	fmt.Fprintf(c.out, "%s\n\n", room.Name())

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tBALANCE")
	for _, u := range room.ListUsers() {
		fmt.Fprintf(w, "%s\t%s\n", u.Name, models.FormatAmount(u.Balance))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "#\tID\tDATE\tPAYER\tSHARES\tNOTE\tTOTAL")
	for _, t := range room.ListTransactions() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Index, t.ID, t.Date, t.Payer, t.Participants, t.Note, models.FormatAmount(t.Total))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if edges := room.Settlements(); len(edges) > 0 {
		fmt.Fprintln(c.out, "\nsettle up:")
		for _, e := range edges {
			fmt.Fprintf(c.out, "  %s -> %s: %s\n", e.From, e.To, models.FormatAmount(e.Amount))
		}
	}
	return nil
}

func (c *command) add(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	payer := fs.String("payer", "", "user who paid")
	note := fs.String("note", "", "commentary")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	shares, err := parseShares(fs.Args())
	if err != nil {
		return err
	}

	id, err := c.svc.Resolve(args[0]).AddTransaction(ctx, *payer, shares, *note)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, id)
	return nil
}

func (c *command) edit(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	index := fs.Int("index", -1, "transaction position")
	id := fs.String("id", "", "transaction id")
	payer := fs.String("payer", "", "user who paid")
	note := fs.String("note", "", "commentary")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	shares, err := parseShares(fs.Args())
	if err != nil {
		return err
	}

	room := c.svc.Resolve(args[0])
	switch {
	case *id != "":
		return room.EditTransaction(ctx, *id, *payer, shares, *note)
	case *index >= 0:
		return room.EditTransactionAt(ctx, *index, *payer, shares, *note)
	default:
		return errUsage
	}
}

func (c *command) delete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	index := fs.Int("index", -1, "transaction position")
	id := fs.String("id", "", "transaction id")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	room := c.svc.Resolve(args[0])
	switch {
	case *id != "":
		return room.DeleteTransaction(ctx, *id)
	case *index >= 0:
		return room.DeleteTransactionAt(ctx, *index)
	default:
		return errUsage
	}
}

func (c *command) draft(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	sum, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid sum %q: %w", args[1], err)
	}

	room := c.svc.Resolve(args[0])
	drafts := room.DraftShares(sum)
	for _, u := range room.ListUsers() {
		fmt.Fprintf(c.out, "%s=%s\n", u.Name, drafts[u.Name])
	}
	return nil
}

// parseShares turns "name=expr" arguments into raw shares.
func parseShares(args []string) (map[string]string, error) {
	shares := make(map[string]string, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("share %q must look like name=expr", arg)
		}
		if _, dup := shares[name]; dup {
			return nil, fmt.Errorf("share for %q given twice", name)
		}
		shares[name] = raw
	}
	return shares, nil
}
