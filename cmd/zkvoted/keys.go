package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/identity"
)

func secretCommand() *cobra.Command {
	var (
		voterID    string
		electionID uint64
	)
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a voter secret with its commitment and nullifier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, ok := new(big.Int).SetString(voterID, 10)
			if !ok {
				return fmt.Errorf("invalid voter id %q", voterID)
			}
			voter, err := identity.NewVoter(id)
			if err != nil {
				return err
			}
			commitment, err := voter.Commitment()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "voter_id:   %s\n", voter.ID)
			fmt.Fprintf(out, "secret:     %s\n", voter.Secret)
			fmt.Fprintf(out, "commitment: %s\n", commitment)
			if cmd.Flags().Changed("election-id") {
				nullifier, err := voter.Nullifier(electionID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "nullifier:  %s (election %d)\n", nullifier, electionID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&voterID, "voter-id", "", "public voter id (decimal)")
	cmd.Flags().Uint64Var(&electionID, "election-id", 0, "also derive the nullifier for this election")
	_ = cmd.MarkFlagRequired("voter-id")
	return cmd
}

func keygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an authority signing key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := ethereum.NewSignKeys()
			if err := k.Generate(); err != nil {
				return err
			}
			_, priv := k.HexString()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "address:     %s\n", k.AddressString())
			fmt.Fprintf(out, "private key: %s\n", priv)
			return nil
		},
	}
}
