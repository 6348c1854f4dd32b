package cli

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"go.sandcal.dev/sandcal/config"
)

// SchemaAction prints the JSON schema of the configuration file.
func SchemaAction(c *cli.Context) error {
	out, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
