package probe

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

func Run(args []string) error {
	return run(context.Background(), args, os.Stdout)
}

func run(ctx context.Context, args []string, writer io.Writer) error {
	options := &Options{}
	_, err := flags.ParseArgs(options, args)
	if err != nil {
		return err
	}
	service, err := New(ctx, options, writer)
	if err != nil {
		return err
	}
	defer service.Close()
	if err = service.Authenticate(ctx); err != nil {
		return err
	}
	results, err := service.Probe(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for _, result := range results {
		_, _ = fmt.Fprintln(writer, result.String())
		if result.Err != nil || result.Status >= 400 {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}
