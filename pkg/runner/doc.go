/*
Package runner implements the interactive play loop for the bardic engine.

It bridges an engine and the outside world: pluggable handlers present passages
and read player commands (TextHandler for terminals, JSONHandler for
line-delimited JSON), saves go through a ports.SaveStore, and OS signals end
the loop cleanly.

# Commands

A number picks the matching choice. Lines starting with ':' are commands:
:save [id], :load [id], :saves, :reset, :help and :quit.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithStore(file.New(".bardic/saves")),
	)
	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
