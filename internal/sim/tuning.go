package sim

// Tuned simulation constants. These are calibration values, not contracts:
// they were hand-tuned against the realism checks in the engine tests and can
// be revisited without touching any simulation logic.
const (
	// DefaultTickDT is the fixed simulated timestep in seconds.
	DefaultTickDT = 0.05

	// DefaultDuration is a full match in simulated seconds (2 x 30 min).
	DefaultDuration = 3600.0

	// HalfTimePause and TimeoutPause are how long the clock-stopped phases
	// hold before play resumes, in simulated seconds.
	HalfTimePause = 30.0
	TimeoutPause  = 20.0

	// TimeoutsPerTeam is the per-match timeout allowance.
	TimeoutsPerTeam = 3

	// SuspensionTime is a standard two-minute suspension.
	SuspensionTime = 120.0

	// disqualified is a suspension end far past any match clock, used when a
	// third suspension rules a player out for good.
	disqualified = 1e18
)

// Player movement.
const (
	MinTopSpeed = 5.0  // m/s at Speed=0
	MaxTopSpeed = 10.0 // m/s at Speed=100

	MinAccel = 3.5 // m/s^2 at low attribute
	MaxAccel = 8.0

	// Turning: achievable acceleration drops with the angle between heading
	// and desired direction, softened by Agility.
	TurnPenaltyScale = 0.85

	StumbleSpeedScale = 0.5
	StumbleAccelScale = 0.5
	StumbleDuration   = 0.5

	// Arrival behaviour near the movement target.
	ArriveRadius  = 0.4
	ArriveDamping = 0.6

	// Jumping
	BaseJumpHeight  = 0.65
	JumpHeightMin   = 0.55 // factor of base at Jumping=0
	JumpHeightMax   = 1.15 // factor of base at Jumping=100
	JumpDuration    = 0.65
	LandingRecovery = 0.6 // seconds of reduced agility after landing
)

// Stamina. All values are fractions of the 0-1 stamina bar per second.
const (
	StaminaBaseDrain  = 0.0035
	StaminaSprintMult = 3.0
	StaminaCarryMult  = 1.6
	StaminaRecovery   = 0.0080

	// Exertion below this speed fraction counts as resting.
	RestSpeedFraction = 0.25

	LowStaminaThreshold  = 0.25
	LowStaminaSpeedFloor = 0.55
)

// Ball handling.
const (
	CatchRadius  = 0.9
	PickupRadius = 0.8

	PassSpeed     = 13.0
	PassArcHeight = 1.4

	ShotSpeedMin = 17.0 // m/s at Throwing=0
	ShotSpeedMax = 27.0 // m/s at Throwing=100

	// Maximum aim error (metres at the goal plane) for the worst thrower
	// under full pressure; scaled down by Throwing and Composure.
	ShotMaxError = 1.6
	PassMaxError = 1.1

	// Goal-line prediction horizon in seconds. Long enough that a 27 m/s
	// shot cannot tunnel through the goal plane between checks.
	GoalPredictHorizon = 2 * DefaultTickDT
)

// AI decision layer.
const (
	BaseActionThreshold = 0.52

	ContestRadius  = 2.0 // defenders inside this radius pressure the holder
	OpennessRadius = 2.5 // a teammate is "open" if no opponent within this
	MaxPassRange   = 15.0
	ChallengeRange = 1.6
	BlockRange     = 1.8 // a raised block contests releases inside this
	ScreenRange    = 1.2 // a set screen hinders challenges inside this

	// Steps rule: distance moved while holding without a dribble that counts
	// as one step, and the legal maximum.
	StepLength   = 1.0
	MaxStepCount = 3

	// LOD scheduling: players near the ball re-decide quickly, far players
	// on a stretched interval, and nobody waits longer than the cap.
	DecisionIntervalNear = 0.15
	DecisionIntervalFar  = 0.55
	DecisionLODRadius    = 10.0
	MaxDecisionInterval  = 0.8
)

// Team coaching cadence and policies.
const (
	CoachInterval = 20.0 // simulated seconds between coach evaluations

	TimeoutCooldown  = 180.0
	MomentumWindow   = 150.0 // trailing window for goal-swing detection
	MomentumSwing    = 2     // net goals against that counts as momentum
	CrucialMargin    = 1     // score within this counts as a crucial moment
	CrucialWindow    = 120.0 // final stretch of a half

	SubCooldown      = 90.0
	SubStaminaMin    = 0.35
	SubStaminaMargin = 0.20

	LateGameWindow  = 300.0
	BigLeadMargin   = 3
	ConcededWindow  = 300.0
	ConcededBurst   = 2
)

// Event retention.
const (
	// MaxMatchEvents caps the retained per-match event list. A 60 minute
	// match produces well under this in practice.
	MaxMatchEvents = 8192
)
