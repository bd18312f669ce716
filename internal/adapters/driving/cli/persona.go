package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage the session's assistant persona",
	Long: `Show or change the persona instructions used as the system prompt
when answering questions in this session.`,
}

var personaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current persona",
	Args:  cobra.NoArgs,
	RunE:  runPersonaShow,
}

var personaSetCmd = &cobra.Command{
	Use:   "set [instructions...]",
	Short: "Set the persona instructions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPersonaSet,
}

var personaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Revert to the default persona",
	Args:  cobra.NoArgs,
	RunE:  runPersonaReset,
}

func init() {
	personaCmd.AddCommand(personaShowCmd)
	personaCmd.AddCommand(personaSetCmd)
	personaCmd.AddCommand(personaResetCmd)
	rootCmd.AddCommand(personaCmd)
}

func runPersonaShow(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	persona, err := chatService.Persona(context.Background(), sessionID)
	if err != nil {
		return err
	}

	cmd.Println(persona)
	return nil
}

func runPersonaSet(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	persona := strings.Join(args, " ")
	if err := chatService.SetPersona(context.Background(), sessionID, persona); err != nil {
		return err
	}

	cmd.Printf("Persona updated for session %q.\n", sessionID)
	return nil
}

func runPersonaReset(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if err := chatService.SetPersona(context.Background(), sessionID, ""); err != nil {
		return err
	}

	cmd.Printf("Persona reset to default for session %q.\n", sessionID)
	return nil
}
