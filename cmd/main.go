// Package main is the production entry point for the webmusic player core.
//
// It wires the full application and drives it through a small interactive
// shell on stdin. The shell is a thin consumer of the services; all playback
// and state logic lives under internal/.
//
// Build:
//
//	go build -o build/webmusic ./cmd
//
// Run:
//
//	./build/webmusic
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/niarxxi/webmusic/internal/app"
	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/service"
)

func main() {
	config := app.DefaultConfig()

	flag.StringVar(&config.DatabasePath, "db", config.DatabasePath, "path to the session database (empty disables persistence)")
	flag.StringVar(&config.MusicDir, "music-dir", "", "scan this directory instead of using the built-in catalog")
	flag.BoolVar(&config.UseMockDevice, "mock-audio", false, "use the silent mock audio device")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	defer func() {
		fmt.Println("\nShutting down...")
		application.Shutdown()
	}()

	// Print the events a listener at a terminal cares about.
	bus := application.EventBus()
	bus.Subscribe(domain.EventSongChanged, func(event domain.Event) {
		e, ok := event.(domain.SongChangedEvent)
		if !ok || e.Song == nil {
			return
		}
		fmt.Printf("now: %s - %s\n", e.Song.Artist, e.Song.Name)
	})
	bus.Subscribe(domain.EventPlaybackError, func(event domain.Event) {
		e, ok := event.(domain.PlaybackErrorEvent)
		if !ok {
			return
		}
		fmt.Printf("playback error: %v\n", e.Err)
	})

	shell := &shell{
		catalog:   application.Catalog(),
		playlists: application.Playlists(),
		player:    application.Player(),
		binding:   application.Binding(),
	}

	// Ctrl+C lands here so the deferred shutdown still runs.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("webmusic ready, type 'help' for commands")
	for {
		fmt.Print("> ")
		select {
		case <-signals:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !shell.handle(strings.Fields(line)) {
				return
			}
		}
	}
}

type shell struct {
	catalog   *service.CatalogService
	playlists *service.PlaylistService
	player    *service.PlayerService
	binding   *service.BindingService
}

// handle runs one command; it returns false when the shell should exit.
func (s *shell) handle(args []string) bool {
	if len(args) == 0 {
		return true
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "quit", "exit":
		return false
	case "help":
		s.printHelp()
	case "songs":
		s.printSongs(s.player.EffectiveSongs())
	case "genres":
		fmt.Println(strings.Join(s.catalog.Genres(), ", "))
	case "search":
		if len(rest) == 0 {
			fmt.Println("usage: search <text>")
			return true
		}
		s.printSongs(s.catalog.Search(strings.Join(rest, " ")))
	case "category":
		if len(rest) == 0 {
			fmt.Println("category:", s.player.SelectedCategory())
			return true
		}
		s.player.SetCategory(strings.Join(rest, " "))
	case "play":
		s.cmdPlay(rest)
	case "pause", "toggle":
		s.player.TogglePlay()
	case "next":
		s.player.Next()
	case "prev":
		s.player.Previous()
	case "shuffle":
		s.player.ToggleShuffle()
		fmt.Println("shuffle:", s.player.IsShuffle())
	case "loop":
		s.player.ToggleLoop()
		fmt.Println("loop:", s.player.IsLoop())
	case "seek":
		if len(rest) == 1 {
			if secs, err := strconv.Atoi(rest[0]); err == nil {
				s.binding.Seek(time.Duration(secs) * time.Second)
			}
		}
	case "vol":
		if len(rest) == 1 {
			if pct, err := strconv.Atoi(rest[0]); err == nil {
				s.binding.SetVolume(float64(pct) / 100)
			}
		}
	case "mute":
		s.binding.Mute(!s.binding.IsMuted())
		fmt.Println("muted:", s.binding.IsMuted())
	case "status":
		s.printStatus()
	case "pl":
		s.cmdPlaylist(rest)
	default:
		fmt.Println("unknown command, type 'help'")
	}
	return true
}

func (s *shell) cmdPlay(args []string) {
	songs := s.player.EffectiveSongs()
	if len(args) == 0 {
		s.player.TogglePlay()
		return
	}

	index, err := strconv.Atoi(args[0])
	if err != nil || index < 1 || index > len(songs) {
		fmt.Println("usage: play <n> (see 'songs')")
		return
	}
	s.player.PlaySong(songs[index-1])
}

func (s *shell) cmdPlaylist(args []string) {
	if len(args) == 0 {
		for _, p := range s.playlists.All() {
			fmt.Printf("%s  %s (%d songs)\n", p.ID, p.Name, len(p.Songs))
		}
		return
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			fmt.Println("usage: pl create <name>")
			return
		}
		id := s.playlists.Create(strings.Join(args[1:], " "))
		fmt.Println("created", id)
	case "rename":
		if len(args) < 3 {
			fmt.Println("usage: pl rename <id> <name>")
			return
		}
		s.playlists.Rename(args[1], strings.Join(args[2:], " "))
	case "delete":
		if len(args) != 2 {
			fmt.Println("usage: pl delete <id>")
			return
		}
		s.playlists.Delete(args[1])
	case "add":
		if len(args) != 3 {
			fmt.Println("usage: pl add <id> <song-id>")
			return
		}
		s.playlists.AddSong(args[1], args[2])
	case "remove":
		if len(args) != 3 {
			fmt.Println("usage: pl remove <id> <song-id>")
			return
		}
		s.playlists.RemoveSong(args[1], args[2])
	case "reorder":
		if len(args) != 4 {
			fmt.Println("usage: pl reorder <id> <from> <to>")
			return
		}
		from, err1 := strconv.Atoi(args[2])
		to, err2 := strconv.Atoi(args[3])
		if err1 != nil || err2 != nil {
			fmt.Println("usage: pl reorder <id> <from> <to>")
			return
		}
		// Reorder expects validated indices.
		playlist, ok := s.playlists.ByID(args[1])
		if !ok || from < 0 || from >= len(playlist.Songs) || to < 0 || to >= len(playlist.Songs) {
			fmt.Println("index out of range")
			return
		}
		s.playlists.Reorder(args[1], from, to)
	case "show":
		if len(args) != 2 {
			fmt.Println("usage: pl show <id>")
			return
		}
		s.printSongs(s.player.PlaylistSongs(args[1]))
	case "use":
		if len(args) != 2 {
			fmt.Println("usage: pl use <id>")
			return
		}
		s.player.SetActivePlaylist(args[1])
	case "clear":
		s.player.ClearActivePlaylist()
	default:
		fmt.Println("unknown playlist command")
	}
}

func (s *shell) printSongs(songs []domain.Song) {
	for i, song := range songs {
		marker := " "
		if current := s.player.CurrentSong(); current != nil && current.ID == song.ID {
			marker = "*"
		}
		fmt.Printf("%s %2d. [%s] %s - %s (%s)\n", marker, i+1, song.ID, song.Artist, song.Name, song.Genre)
	}
}

func (s *shell) printStatus() {
	state := s.player.State()
	if state.CurrentSong == nil {
		fmt.Println("nothing selected")
	} else {
		fmt.Printf("song: %s - %s\n", state.CurrentSong.Artist, state.CurrentSong.Name)
		fmt.Printf("position: %s / %s\n",
			s.binding.Position().Round(time.Second),
			s.binding.Duration().Round(time.Second))
	}
	fmt.Printf("playing=%v shuffle=%v loop=%v category=%s\n",
		state.IsPlaying, state.IsShuffle, state.IsLoop, state.SelectedCategory)
	if state.ActivePlaylist != nil {
		fmt.Println("active playlist:", *state.ActivePlaylist)
	}
}

func (s *shell) printHelp() {
	fmt.Print(`commands:
  songs                      list songs in the current view
  genres                     list catalog genres
  search <text>              search the catalog
  category [name|all]        show or set the genre filter
  play <n>                   play the n-th listed song
  pause | toggle             toggle play/pause
  next | prev                move through the current order
  shuffle | loop             toggle modes
  seek <seconds>             jump to a position
  vol <0-100> | mute         volume control
  pl                         list playlists
  pl create|rename|delete|add|remove|reorder|show|use|clear ...
  status                     show player state
  quit                       exit
`)
}
