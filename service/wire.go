package service

import (
	"scene-worker/config"
	"scene-worker/pkg/ffmpeg"
	"scene-worker/pkg/scenedetect"
	"scene-worker/pkg/whisper"
)

func NewFolders(cfg *config.Config) []Folder {
	folders := make([]Folder, 0, len(cfg.Folders))
	for _, name := range cfg.Folders {
		folders = append(folders, Folder{Name: name, Path: cfg.FolderPath(name)})
	}
	return folders
}

// NewPipelineFromConfig wires the detector, splitter and reconciler onto the
// external tools named in cfg.
func NewPipelineFromConfig(cfg *config.Config) (*Pipeline, error) {
	archiver, err := NewArchiver(cfg)
	if err != nil {
		return nil, err
	}

	store := NewSceneStore(cfg.Detect.MinSceneSeconds)
	detector := NewDetector(
		scenedetect.NewCLI(cfg.Detect.Binary, cfg.Detect.Timeout),
		store,
		scenedetect.Profile{Name: "default", Threshold: cfg.Detect.Default.Threshold, Method: cfg.Detect.Default.Method},
		scenedetect.Profile{Name: "coarse", Threshold: cfg.Detect.Coarse.Threshold, Method: cfg.Detect.Coarse.Method},
		cfg.Detect.MaxSceneSeconds,
	)
	transcoder := ffmpeg.NewTranscoder(cfg.Split.FFmpegPath, cfg.Split.EncoderArgs, cfg.Split.Timeout)
	splitter := NewSplitter(transcoder, store, cfg.Split.NameTemplate, cfg.Split.MaxOrdinal)
	reconciler := NewReconciler(store, archiver)

	return NewPipeline(NewFolders(cfg), cfg.Detect.VideoExt, store, detector, splitter, reconciler), nil
}

func NewSubtitleServiceFromConfig(cfg *config.Config) *SubtitleService {
	extractor := ffmpeg.NewTranscoder(cfg.Split.FFmpegPath, nil, cfg.Subtitle.Timeout)
	transcriber := &whisper.CLI{
		Binary:   cfg.Subtitle.WhisperPath,
		Model:    cfg.Subtitle.Model,
		Language: cfg.Subtitle.Language,
		Task:     cfg.Subtitle.Task,
		Device:   cfg.Subtitle.Device,
		Timeout:  cfg.Subtitle.Timeout,
	}
	return NewSubtitleService(NewFolders(cfg), cfg.Detect.VideoExt, extractor, transcriber, cfg.Server.Workers)
}
