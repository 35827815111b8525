package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datops/internal/core"
)

func (a *app) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert FILE...",
		Short: "Rewrite DAT files as csv, tsv, dat or xlsx",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, file := range args {
				res, err := a.svc.Convert(cmd.Context(), core.ConvertRequest{
					File:   file,
					Output: a.output(),
					Input:  a.input(),
				})
				if err != nil {
					a.printFailure(file, err)
					errs = append(errs, err)
					continue
				}
				a.print(res)
			}
			return errors.Join(errs...)
		},
	}
}

func (a *app) compareCommand() *cobra.Command {
	var (
		opts    core.CompareOptions
		mapFile string
		report  bool
	)
	cmd := &cobra.Command{
		Use:   "compare FILE_A FILE_B",
		Short: "List the fields that differ between two files, row by row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mapFile != "" {
				m, err := core.LoadMapping(mapFile)
				if err != nil {
					return err
				}
				opts.FieldMap = m.Map()
			}

			req := core.CompareRequest{
				FileA:   args[0],
				FileB:   args[1],
				Options: opts,
				Input:   a.input(),
			}
			if report {
				out := a.output()
				req.Report = &out
			}

			res, err := a.svc.Compare(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.print(res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&mapFile, "map", "", "mapping file of \"fieldA,fieldB\" lines; compares only mapped fields")
	f.BoolVar(&opts.TrimSpaces, "trim", false, "ignore leading and trailing spaces")
	f.BoolVar(&opts.CaseInsensitive, "ignore-case", false, "compare values case-insensitively")
	f.BoolVar(&opts.Numeric, "numeric", false, "treat numerically equal values as equal (1.0 = 1)")
	f.BoolVar(&report, "report", false, "also write the differences to <FILE_A>_diff.<ext>")
	return cmd
}

func (a *app) replaceHeaderCommand() *cobra.Command {
	var mapFile string
	cmd := &cobra.Command{
		Use:   "replace-header FILE --map MAPPING",
		Short: "Rename header fields using an \"old,new\" mapping file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mapFile == "" {
				return usagef("--map is required")
			}
			m, err := core.LoadMapping(mapFile)
			if err != nil {
				return err
			}

			res, err := a.svc.ReplaceHeader(cmd.Context(), core.ReplaceHeaderRequest{
				File:    args[0],
				Mapping: m.Pairs,
				Output:  a.output(),
				Input:   a.input(),
			})
			if err != nil {
				return err
			}
			a.print(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&mapFile, "map", "", "mapping file of \"old,new\" lines")
	return cmd
}

func (a *app) mergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge FILE...",
		Short: "Concatenate files, one output per distinct header",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.Merge(cmd.Context(), core.MergeRequest{
				Files:  args,
				Output: a.output(),
				Input:  a.input(),
			})
			if err != nil {
				return err
			}
			a.print(res)
			return nil
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	var (
		field  string
		values []string
	)
	cmd := &cobra.Command{
		Use:   "delete FILE --field NAME --value V [--value V...]",
		Short: "Split a file into rows to keep and rows whose field matches a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(field) == "" {
				return usagef("--field is required")
			}
			if len(values) == 0 {
				return usagef("at least one --value is required")
			}

			res, err := a.svc.Delete(cmd.Context(), core.DeleteRequest{
				File:   args[0],
				Field:  field,
				Values: values,
				Output: a.output(),
				Input:  a.input(),
			})
			if err != nil {
				return err
			}
			a.print(res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&field, "field", "", "field to match on")
	f.StringSliceVar(&values, "value", nil, "value to delete; repeat or comma-separate")
	return cmd
}

func (a *app) selectCommand() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "select FILE --fields A,B,...",
		Short: "Keep only the named fields, in header order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fields) == 0 {
				return usagef("--fields is required")
			}

			res, err := a.svc.Select(cmd.Context(), core.SelectRequest{
				File:   args[0],
				Fields: fields,
				Output: a.output(),
				Input:  a.input(),
			})
			if err != nil {
				return err
			}
			a.print(res)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to keep")
	return cmd
}

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show a file's encoding, header, schema key and malformed rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, file := range args {
				res, err := a.svc.Inspect(cmd.Context(), core.InspectRequest{File: file, Input: a.input()})
				if err != nil {
					a.printFailure(file, err)
					errs = append(errs, err)
					continue
				}
				a.print(res)
			}
			return errors.Join(errs...)
		},
	}
}
