package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/display"
	"github.com/ayusman/drishti/internal/server"
	"github.com/ayusman/drishti/internal/store"
)

const serverAddr = ":8080"

func main() {
	fmt.Println("Drishti - Adaptive Camera Inspection")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dbDir := filepath.Join(homeDir, ".drishti")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dbDir, "drishti.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Prefer the camera that worked last time, then probe the usual IDs.
	var probeIDs []int
	if id, err := st.Settings().GetInt(store.SettingCameraID); err == nil {
		probeIDs = append(probeIDs, id)
	}
	probeIDs = append(probeIDs, 0, 1, 2)

	fmt.Println("Opening camera...")
	camera, cameraID, err := capture.Probe(probeIDs...)
	if err != nil {
		log.Fatalf("Couldn't open camera (check if another app is using it): %v", err)
	}
	defer camera.Close()

	window := display.NewWindow("Drishti")
	defer window.Close()

	a := app.New(app.Config{
		Store:    st,
		Camera:   camera,
		CameraID: cameraID,
		Renderer: window,
		Input:    window,
	})

	srv := server.New(server.Config{
		Store:  st,
		Stats:  a,
		Frames: a,
	})
	go func() {
		log.Printf("Observer server on %s", serverAddr)
		if err := srv.ListenAndServe(serverAddr); err != nil {
			log.Printf("Observer server stopped: %v", err)
		}
	}()

	printControls()

	// The window event loop requires the main goroutine.
	runErr := a.Run()

	if summary := a.Summary(); summary.Ticks > 0 {
		fmt.Printf("\nAvg FPS: %.1f\n", summary.FPS)
	}

	if runErr != nil {
		log.Fatalf("Pipeline stopped: %v", runErr)
	}
}

func printControls() {
	fmt.Println("\nControls:")
	fmt.Println("  1 - Edge detection")
	fmt.Println("  2 - Motion detection")
	fmt.Println("  3 - ROI processing")
	fmt.Println("  4 - Normal view")
	fmt.Println("  + - Skip more frames")
	fmt.Println("  - - Skip fewer frames")
	fmt.Println("  q - Quit")
	fmt.Println()
}
