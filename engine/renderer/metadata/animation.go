package metadata

// RepeatForever loops an animation until it is stopped.
const RepeatForever = -1

/** @brief Playback parameters for an animation. */
type AnimationConfig struct {
	/** @brief Frames per second. */
	FrameRate float64
	/** @brief Number of extra plays; RepeatForever loops. */
	Repeat int
	/** @brief Plays forward then backward (ping-pong). */
	Yoyo bool
}

/**
 * @brief An ordered sequence of atlas frames, owned by the atlas animation
 * registry. Assets only keep a pointer for lookups.
 */
type Animation struct {
	Key    string
	Frames []SlicedFrame
	AnimationConfig
}

// FrameCount returns the number of frames in the animation.
func (a *Animation) FrameCount() int {
	if a == nil {
		return 0
	}
	return len(a.Frames)
}
