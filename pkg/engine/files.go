// Package engine reads and writes the simulation engine's file formats.
//
// These are the collaborators at the controller's interface boundary:
// the controller only cares about presence/absence/content of these
// files, while this package knows their structure. All readers tolerate
// nothing — a malformed file is an error. Absence handling is the
// caller's job.
package engine

// Sentinel and input/output file names. Their presence, absence and
// content encode the lifecycle state of a job directory.
const (
	// InputFile holds the job's configuration parameters. Its absence
	// means the job was never configured.
	InputFile = "INCAR"

	// StructureFile is the input atomic structure.
	StructureFile = "POSCAR"

	// KPointsFile is the k-point mesh specification. Optional.
	KPointsFile = "KPOINTS"

	// PotentialFile is the pseudopotential payload. Only its presence
	// matters to the job-directory predicate.
	PotentialFile = "POTCAR"

	// JobIDFile holds a single line: the queue's opaque job id,
	// optionally with a dotted host suffix. Deleted exactly when the
	// controller first observes the job finished.
	JobIDFile = "jobid"

	// RunningFile is an existence-only flag touched by the worker
	// when execution starts.
	RunningFile = "running"

	// ResultFile is the result-snapshot the engine writes. A zero
	// length ResultFile marks a job killed before any write.
	ResultFile = "CONTCAR"

	// LogFile is the engine transcript. Its last line carries the
	// termination marker on a clean exit.
	LogFile = "OUTCAR"

	// ArchiveFile is the machine-readable results archive, required
	// alongside ResultFile and LogFile for a previously observed
	// finished job.
	ArchiveFile = "vasprun.xml"

	// SortFile maps between caller atom order and engine atom order,
	// two columns of integers per line.
	SortFile = "ase-sort.dat"

	// MetadataFile is the provenance record, created once for
	// non-multi-image jobs.
	MetadataFile = "METADATA"

	// ChargeCacheFile and WaveCacheFile are large intermediate outputs
	// deleted after resolution unless the caller asks to keep them.
	ChargeCacheFile = "CHGCAR"
	WaveCacheFile   = "WAVECAR"
)

// TerminationMarker is the string expected in the last line of LogFile
// when the engine exits normally. A truncated log (worker killed
// mid-write) will not end with it.
const TerminationMarker = "Voluntary context switches"
