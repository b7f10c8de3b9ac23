package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/camy47/pokesocial/internal/app"
	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"
	"github.com/camy47/pokesocial/internal/ui/console"
	"github.com/camy47/pokesocial/internal/ui/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// locationWait bounds how long one-shot commands wait for the place lookup.
const locationWait = 10 * time.Second

var (
	feedTab      string
	setUsername  string
	setBio       string
	avatarImage  string
	avatarMirror bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive encounter loop",
	Long: `Resolves your location, keeps the community feed fresh in the background
and presents wild Pokémon one at a time. Each encounter can be caught,
re-rolled or let go. Decisions are taken on the terminal, or through
Telegram when TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are set.`,
	Args: cobra.NoArgs,
	RunE: runLoop,
}

var encounterCmd = &cobra.Command{
	Use:   "encounter",
	Short: "Meet a random wild Pokémon",
	Args:  cobra.NoArgs,
	RunE:  runEncounter,
}

var catchCmd = &cobra.Command{
	Use:   "catch",
	Short: "Catch the Pokémon you last encountered",
	Args:  cobra.NoArgs,
	RunE:  runCatch,
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the home feed or your own catches",
	Args:  cobra.NoArgs,
	RunE:  runFeed,
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like or unlike one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runLike,
}

var releaseCmd = &cobra.Command{
	Use:   "release <post-id>",
	Short: "Release a caught Pokémon for good",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelease,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your trainer profile",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit your username or bio",
	Example: `  pokegram profile set --username Misty
  pokegram profile set --bio "Cerulean City Gym Leader"`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var avatarCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Replace your avatar with a camera still",
	Args:  cobra.NoArgs,
	RunE:  runAvatar,
}

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write your profile, collection and settings to a JSON file",
	Long:  `Writes the export document to path. Use "-" for standard output.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func registerCommands(root *cobra.Command) {
	feedCmd.Flags().StringVar(&feedTab, "tab", string(domain.TabHome), "Feed tab: home or profile")

	profileSetCmd.Flags().StringVar(&setUsername, "username", "", "New username")
	profileSetCmd.Flags().StringVar(&setBio, "bio", "", "New bio")
	profileSetCmd.MarkFlagsOneRequired("username", "bio")
	profileCmd.AddCommand(profileSetCmd)

	avatarCmd.Flags().StringVar(&avatarImage, "image", "", "Image file acting as the camera (default: POKEGRAM_CAMERA_IMAGE)")
	avatarCmd.Flags().BoolVar(&avatarMirror, "mirror", false, "Flip the capture horizontally")

	root.AddCommand(runCmd)
	root.AddCommand(encounterCmd)
	root.AddCommand(catchCmd)
	root.AddCommand(feedCmd)
	root.AddCommand(likeCmd)
	root.AddCommand(releaseCmd)
	root.AddCommand(profileCmd)
	root.AddCommand(avatarCmd)
	root.AddCommand(exportCmd)
}

func closeSession(s *app.Session) {
	s.Close()
	if err := s.KV.Close(); err != nil {
		logger.Warn("Failed to close storage", zap.Error(err))
	}
}

// runLoop presents encounters until interrupted, printing the home feed
// after every decision.
func runLoop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	defer closeSession(s)
	s.Start(ctx)

	var ui ports.Interaction
	var trigger <-chan struct{}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		tg, err := telegram.NewTelegramUI(cfg.TelegramBotToken, cfg.TelegramChatID, logger.Named("telegram"))
		if err != nil {
			logger.Warn("Telegram unavailable, using terminal", zap.Error(err))
		} else {
			defer tg.Stop()
			ui = tg
			trigger = stdinTrigger(cmd.InOrStdin())
		}
	}
	var prompt *console.Prompt
	if ui == nil {
		prompt = console.NewPrompt(cmd.InOrStdin(), out)
		ui = prompt
	}

	fmt.Fprintln(out, "🚀 PokéGram is running. Press Ctrl+C to quit.")

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		fmt.Fprintf(out, "\n--- 🌿 Tall grass (%s) ---\n", time.Now().Format("15:04:05"))
		post, err := s.Decide(ctx, ui)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			logger.Warn("Encounter failed", zap.Error(err))
			fmt.Fprintln(out, "Couldn't find a wild Pokémon right now. Try again in a moment.")
		case post != nil:
			fmt.Fprintf(out, "🎉 %s\n", post.Caption)
		default:
			fmt.Fprintln(out, "The wild Pokémon ran away.")
		}

		fmt.Fprintln(out)
		app.RenderFeed(out, s.Feed(domain.TabHome), s.Profile.Identity(), time.Now())

		if prompt != nil {
			fmt.Fprint(out, "Press Enter for another encounter (q to quit) > ")
			line, err := prompt.In.ReadString('\n')
			if err != nil || strings.EqualFold(strings.TrimSpace(line), "q") {
				return nil
			}
			continue
		}

		fmt.Fprintf(out, "\nNext encounter in %s (press Enter to hurry up)...\n", cfg.RefreshInterval)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-trigger:
			fmt.Fprintln(out, "⚡ Manual trigger!")
		}
	}
}

// stdinTrigger signals once per line read from in. The reader goroutine
// lives for the rest of the process.
func stdinTrigger(in io.Reader) <-chan struct{} {
	trigger := make(chan struct{}, 1)
	go func() {
		reader := bufio.NewReader(in)
		for {
			if _, err := reader.ReadString('\n'); err != nil {
				return
			}
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}()
	return trigger
}

func runEncounter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	c, err := s.Encounter(ctx)
	if err != nil {
		return fmt.Errorf("no wild Pokémon appeared: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "A wild %s appeared! (#%d)\n%s\n%s\n\n", c.DisplayName(), c.ID, c.SpriteURL, app.DescribeCreature(c))
	fmt.Fprintln(out, "Run `pokegram catch` to catch it, or `pokegram encounter` to look for another.")
	return nil
}

func runCatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	if _, ok := s.Collection.Pending(); !ok {
		return fmt.Errorf("%w: run `pokegram encounter` first", domain.ErrNoPendingEncounter)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, locationWait)
	_, _ = s.Location.Resolve(lookupCtx)
	cancel()

	post, err := s.Catch()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🎉 %s\nid: %s\n", post.Caption, post.ID)
	return nil
}

func runFeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tab := domain.Tab(feedTab)
	if tab != domain.TabHome && tab != domain.TabProfile {
		return fmt.Errorf("unknown tab %q: want %s or %s", feedTab, domain.TabHome, domain.TabProfile)
	}

	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	if tab == domain.TabHome {
		s.RefreshFeed(ctx)
	}
	app.RenderFeed(cmd.OutOrStdout(), s.Feed(tab), s.Profile.Identity(), time.Now())
	return nil
}

func runLike(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	post, err := s.ToggleLike(args[0])
	if err != nil {
		return err
	}
	verb := "Unliked"
	if post.LikedByViewer {
		verb = "Liked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d likes)\n", verb, post.Creature.DisplayName(), post.LikeCount)
	return nil
}

func runRelease(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	if !s.Release(args[0]) {
		fmt.Fprintf(cmd.OutOrStdout(), "No post %s in your collection.\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Released. You now have %d Pokémon.\n", s.Collection.Len())
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	app.RenderProfile(cmd.OutOrStdout(), s.Profile.Snapshot())
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	if cmd.Flags().Changed("username") {
		name := strings.TrimSpace(setUsername)
		if name == "" {
			return errors.New("username cannot be empty")
		}
		s.Profile.SetUsername(name)
	}
	if cmd.Flags().Changed("bio") {
		s.Profile.SetBio(setBio)
	}
	app.RenderProfile(cmd.OutOrStdout(), s.Profile.Snapshot())
	return nil
}

func runAvatar(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, avatarImage)
	if err != nil {
		return err
	}
	defer closeSession(s)

	if err := s.CaptureAvatar(ctx, avatarMirror); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return fmt.Errorf("camera access was refused: %w", err)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "📸 Avatar updated.")
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), "")
	if err != nil {
		return err
	}
	defer closeSession(s)

	if args[0] == "-" {
		return s.Export(cmd.OutOrStdout())
	}

	if dir := filepath.Dir(args[0]); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := s.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", args[0])
	return nil
}
