package constant

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCompleted  JobStatus = "COMPLETED"
)

type JobType string

const (
	JobTypeScenePipeline JobType = "scene_pipeline"
	JobTypeSubtitle      JobType = "subtitle"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// VideoState is the lifecycle position of a file in a folder root, derived
// from the filesystem.
type VideoState string

const (
	VideoStateUnprocessed     VideoState = "unprocessed"
	VideoStateDetected        VideoState = "detected"
	VideoStateSplitInProgress VideoState = "split-in-progress"
	VideoStateFullySplit      VideoState = "fully-split"
	VideoStateArchived        VideoState = "archived"
	VideoStateReduced         VideoState = "reduced"
	VideoStateSplitOutput     VideoState = "split-output"
)

type ArchivePolicy string

const (
	ArchivePolicyQuarantine ArchivePolicy = "quarantine"
	ArchivePolicyDelete     ArchivePolicy = "delete"
	ArchivePolicyBucket     ArchivePolicy = "bucket"
)

func (p ArchivePolicy) Valid() bool {
	switch p {
	case ArchivePolicyQuarantine, ArchivePolicyDelete, ArchivePolicyBucket:
		return true
	}
	return false
}
