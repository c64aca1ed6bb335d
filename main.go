// Package main provides the entry point for the Document Annotator application.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"doc-annotator/internal/app"
	"doc-annotator/internal/version"
	"doc-annotator/ui/mainwindow"
	"doc-annotator/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Document Annotator %s", version.String())

	fyneApp := fyneapp.New()
	fyneApp.Settings().SetTheme(&app.AnnotatorTheme{})

	appState := app.NewState()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, appPrefs)
	win.Resize(fyne.NewSize(1400, 900))

	// Handle command line arguments
	if len(os.Args) > 1 {
		openArg(appState, os.Args[1])
	}

	setupHotReload(win, appPrefs)

	win.ShowAndRun()
}

// openArg opens the project or document named on the command line.
func openArg(state *app.State, path string) {
	var err error
	if filepath.Ext(path) == ".annproj" {
		err = state.LoadProject(context.Background(), path)
	} else {
		err = state.OpenDocument(context.Background(), path)
	}
	if err != nil {
		log.Printf("Failed to open %s: %v", path, err)
		return
	}
	state.SetModified(false) // Don't mark as modified on startup
}

// setupHotReload prompts for a restart when the binary is recompiled.
func setupHotReload(win *mainwindow.MainWindow, appPrefs *prefs.Prefs) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}
	log.Printf("Hot reload: watching %s", reloader.ExecPath())

	var start func()
	start = func() {
		reloader.Start(func() {
			log.Println("Hot reload: newer binary detected")
			dialog.ShowConfirm("New Version Available",
				"The application binary has been updated.\nRestart now?",
				func(restart bool) {
					if !restart {
						reloader.ResetBaseline()
						start()
						return
					}
					log.Println("Hot reload: saving preferences before restart...")
					if err := appPrefs.Save(); err != nil {
						log.Printf("Hot reload: failed to save preferences: %v", err)
					}
					if err := reloader.Restart(); err != nil {
						log.Printf("Hot reload: restart failed: %v", err)
					}
				}, win.Window)
		})
	}
	start()
}
