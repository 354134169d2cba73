package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func runRecordsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	b, err := openBackends(ctx, recordBackend)
	if err != nil {
		return err
	}
	defer b.Close()

	ids, err := b.records.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	b, err := openBackends(ctx, recordBackend)
	if err != nil {
		return err
	}
	defer b.Close()

	rec, err := b.records.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("record %s: %w", args[0], err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func runRecordsPurge(cmd *cobra.Command, args []string) error {
	if purgeAll == (len(args) == 1) {
		return errors.New("give either a document id or --all")
	}

	ctx := context.Background()
	b, err := openBackends(ctx, recordBackend)
	if err != nil {
		return err
	}
	defer b.Close()

	if purgeAll {
		n, err := b.records.DeleteAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records\n", n)
		return nil
	}

	if err := b.records.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}
