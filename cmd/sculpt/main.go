package main

import (
	"log"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/chazu/sculpt/pkg/app"
	"github.com/chazu/sculpt/pkg/config"
	"github.com/chazu/sculpt/pkg/logging"
	"github.com/chazu/sculpt/pkg/render"
)

const logFlags = log.Ltime | log.Lshortfile

func init() {
	// OpenGL contexts are tied to specific OS threads - let's pin to just one.
	runtime.LockOSThread()
	log.SetFlags(logFlags)
}

func main() {
	cfg := config.MustLoad()
	if cfg.Logging.Debug {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := glfw.Init(); err != nil {
		log.Fatalf("Failed to initialize GLFW: %v", err)
	}
	defer glfw.Terminate()

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.Samples, 4)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, "Sculpt", nil, nil)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		log.Fatalf("Failed to initialize OpenGL: %v", err)
	}

	// Picking works in window coordinates, which differ from framebuffer
	// pixels on high-DPI displays.
	ww, wh := window.GetSize()
	session, err := app.New(app.Config{
		Width:       ww,
		Height:      wh,
		Base:        cfg.BaseScene(),
		EvalTimeout: cfg.Scene.EvalTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	if cfg.Script != "" {
		loadScript(session, cfg.Script)
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}
	defer renderer.Delete()

	handlers := NewEventHandlers(session, window, cfg.Script)

	lastTitle := time.Time{}
	for !window.ShouldClose() {
		frame, err := session.Frame()
		if err != nil {
			log.Printf("Frame failed: %v", err)
		}
		fw, fh := window.GetFramebufferSize()
		renderer.Draw(frame, session.Camera().ViewProjection(), session.Background(), fw, fh)
		window.SwapBuffers()
		glfw.PollEvents()

		if now := time.Now(); now.Sub(lastTitle) >= 250*time.Millisecond || handlers.dirty {
			window.SetTitle("Sculpt - " + session.Status())
			lastTitle = now
			handlers.dirty = false
		}
	}
}

// loadScript evaluates the script at path and reports problems on the log.
func loadScript(session *app.App, path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Failed to read %s: %v", path, err)
		return
	}
	res := session.Load(string(source))
	for _, e := range res.Errors {
		if e.Line > 0 {
			log.Printf("%s:%d: %s", path, e.Line, e.Message)
		} else {
			log.Printf("%s: %s", path, e.Message)
		}
	}
	for _, w := range res.Warnings {
		log.Printf("%s: warning: %s", path, w.Message)
	}
}
