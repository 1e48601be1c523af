package commands

import (
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
)

// newRand seeds a PCG source from --seed, or from the clock when the flag
// was not given.
func newRand(cmd *cobra.Command, seed uint64) *rand.Rand {
	if !cmd.Flags().Changed("seed") {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative clock value.
	}

	return rand.New(rand.NewPCG(seed, seed>>1)) //nolint:gosec // presentation randomness.
}
