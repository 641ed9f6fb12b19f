package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivlev/orbit2gif/internal/config"
	"github.com/ivlev/orbit2gif/internal/engine"
	"github.com/ivlev/orbit2gif/internal/scene"
	"github.com/ivlev/orbit2gif/internal/system"
	"github.com/ivlev/orbit2gif/internal/worker"
)

var buildVersion = "dev"

func main() {
	// Рендер-процесс: orbit2gif worker --background <scene> --plan <plan> -- <out> <res> [n]
	if len(os.Args) > 1 && os.Args[1] == "worker" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := worker.Run(ctx, os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "[-] Ошибка рендера: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	configPtr := flag.String("config", "", "YAML-конфигурация (по умолчанию встроенные значения)")
	scenePtr := flag.String("scene", "", "Файл сцены (по умолчанию: самый свежий в scene_dir)")
	outputPtr := flag.String("output", "", "Папка результатов")
	modePtr := flag.String("mode", "", "Режим: orbit, playback, both")
	framesPtr := flag.Int("frames", 0, "Количество кадров облёта")
	resolutionPtr := flag.Int("resolution", 0, "Разрешение рендера (квадрат)")
	sizePtr := flag.Int("size", 0, "Размер GIF в пикселях")
	delayPtr := flag.Int("delay", -1, "Задержка кадра GIF анимации (мс)")
	rotationDelayPtr := flag.Int("rotation-delay", -1, "Задержка кадра GIF облёта (мс)")
	orbitFramePtr := flag.Int("orbit-frame", 0, "Кадр сцены для облёта (по умолчанию frame_start)")
	letterboxPtr := flag.Bool("letterbox", false, "Сохранять пропорции кадра (поля цветом фона) вместо растяжения")
	backendPtr := flag.String("backend", "", "Рендер: builtin, blender")
	programPtr := flag.String("program", "", "Исполняемый файл рендера")
	blendPtr := flag.String("blend", "", "Файл .blend для backend=blender (по умолчанию: самый свежий в scene_dir)")
	timeoutPtr := flag.Duration("timeout", 0, "Таймаут одного рендер-пакета")
	previewPtr := flag.Bool("preview", false, "Сохранить схему орбиты (PNG)")
	mp4Ptr := flag.Bool("mp4", false, "Дополнительно собрать MP4 через ffmpeg")
	qualityPtr := flag.Int("quality", 0, "Качество MP4 (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	statsPtr := flag.Bool("stats", false, "Показать отчёт о производительности")
	demoPtr := flag.String("demo-scene", "", "Записать демонстрационную сцену в файл и выйти")

	flag.Parse()

	if *demoPtr != "" {
		if err := scene.Write(scene.Demo(), *demoPtr); err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		fmt.Printf("[+++] Демо-сцена: %s\n", *demoPtr)
		return
	}

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка конфигурации: %v", err)
		}
		cfg = loaded
	}
	cfg.BuildVersion = buildVersion

	// флаги командной строки важнее файла
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.ScenePath = *scenePtr
		case "output":
			cfg.OutputDir = *outputPtr
		case "mode":
			cfg.Mode = *modePtr
		case "frames":
			cfg.Orbit.Frames = *framesPtr
		case "resolution":
			cfg.Render.Resolution = *resolutionPtr
		case "size":
			cfg.GIF.Size = *sizePtr
		case "delay":
			cfg.GIF.DelayMS = *delayPtr
		case "rotation-delay":
			cfg.GIF.RotationDelayMS = *rotationDelayPtr
		case "orbit-frame":
			cfg.OrbitFrame = orbitFramePtr
		case "letterbox":
			cfg.GIF.Letterbox = *letterboxPtr
		case "backend":
			cfg.Render.Backend = *backendPtr
		case "program":
			cfg.Render.Program = *programPtr
		case "blend":
			cfg.Render.BlendFile = *blendPtr
		case "timeout":
			cfg.Render.Timeout = *timeoutPtr
		case "preview":
			cfg.Preview = *previewPtr
		case "mp4":
			cfg.MP4 = *mp4Ptr
		case "quality":
			cfg.Quality = *qualityPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}

	if cfg.ScenePath == "" {
		latest, err := system.FindLatestScene(cfg.SceneDir)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите сцену в %s/ или запустите с -demo-scene", err, cfg.SceneDir)
		}
		cfg.ScenePath = latest
		fmt.Printf("[*] Выбрана сцена: %s\n", cfg.ScenePath)
	}
	if cfg.Render.Backend == config.BackendBlender && cfg.Render.BlendFile == "" {
		if latest, err := system.FindLatestBlend(cfg.SceneDir); err == nil {
			cfg.Render.BlendFile = latest
			fmt.Printf("[*] Выбран .blend: %s\n", latest)
		}
	}

	if cfg.MP4 {
		if !system.HasProgram("ffmpeg") {
			log.Fatalf("[-] Ошибка: для -mp4 нужен ffmpeg в PATH")
		}
		if cfg.VideoEncoder == "" {
			cfg.VideoEncoder = system.GetBestH264Encoder()
		}
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
		if *qualityPtr == 0 {
			switch cfg.VideoEncoder {
			case "h264_videotoolbox":
				cfg.Quality = 75 // Хорошее качество для VideoToolbox
			case "h264_nvenc":
				cfg.Quality = 28 // Эквивалент CRF для NVENC
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	project, err := engine.NewProject(cfg, cfg.ScenePath)
	if err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	reports, err := project.Run(ctx)
	if err != nil {
		log.Fatal(failureMessage(err))
	}

	for _, r := range reports {
		fmt.Printf("[+++] Успех! %s: %s\n", r.Mode, r.Artifact)
		if r.MP4 != "" {
			fmt.Printf("[+++] MP4: %s\n", r.MP4)
		}
	}
	fmt.Printf("[*] Всего: %.2fs\n", time.Since(start).Seconds())
}

// failureMessage keeps the stage error text whole, since it carries the
// expected and found frame counts.
func failureMessage(err error) string {
	var se *engine.StageError
	if errors.As(err, &se) {
		return fmt.Sprintf("[-] Ошибка на этапе %s: %v", se.Stage, err)
	}
	return fmt.Sprintf("[-] Ошибка проекта: %v", err)
}
