package config

import "time"

const (
	hour = time.Hour
	day  = 24 * time.Hour
)

func plain(name, impulse, group string, polarity float64) NodeSpec {
	return NodeSpec{Name: name, Impulse: impulse, Kind: KindPlain, Group: group, Polarity: polarity}
}

func need(name, impulse, group string, polarity float64, halfSat time.Duration) NodeSpec {
	return NodeSpec{Name: name, Impulse: impulse, Kind: KindNeed, Group: group, Polarity: polarity, HalfSaturation: halfSat}
}

func habit(name, impulse, group string, polarity float64, halfLife time.Duration) NodeSpec {
	return NodeSpec{Name: name, Impulse: impulse, Kind: KindHabituating, Group: group, Polarity: polarity, HalfLife: halfLife}
}

// #region catalog
// DefaultCatalog returns the 50 built-in sensor/impulse pairs.
func DefaultCatalog() []NodeSpec {
	return []NodeSpec{
		// environment
		habit("raining", "seek_shelter", GroupEnvironment, -0.3, 2*hour),
		habit("thunder", "startle", GroupEnvironment, -0.6, 30*time.Minute),
		habit("heat", "seek_cool", GroupEnvironment, -0.4, 3*hour),
		habit("cold", "seek_warmth", GroupEnvironment, -0.4, 3*hour),
		habit("darkness", "wind_down", GroupEnvironment, 0.1, 4*hour),
		habit("bright_light", "squint", GroupEnvironment, -0.2, time.Hour),
		habit("loud_noise", "irritation", GroupEnvironment, -0.7, 20*time.Minute),
		habit("silence", "daydream", GroupEnvironment, 0.3, 2*hour),
		habit("wind", "restless_glance", GroupEnvironment, -0.1, 2*hour),
		habit("strong_smell", "wrinkle_nose", GroupEnvironment, -0.3, 15*time.Minute),

		// body
		need("hunger", "crave_food", GroupBody, -0.4, 6*hour),
		need("thirst", "crave_drink", GroupBody, -0.3, 4*hour),
		need("fatigue", "yawn", GroupBody, -0.3, 16*hour),
		plain("pain", "wince", GroupBody, -0.9),
		habit("itch", "fidget", GroupBody, -0.2, 10*time.Minute),
		need("restlessness", "stretch", GroupBody, 0.1, 3*hour),
		plain("satiety", "contentment", GroupBody, 0.5),
		plain("warmth", "relax", GroupBody, 0.6),
		need("sleepiness", "drowse", GroupBody, -0.1, 18*hour),
		plain("tension", "brace", GroupBody, -0.5),

		// social
		need("isolation", "seek_contact", GroupSocial, 0.4, 24*hour),
		plain("praise", "glow", GroupSocial, 0.8),
		plain("criticism", "withdraw", GroupSocial, -0.7),
		need("being_ignored", "sulk", GroupSocial, -0.6, 2*hour),
		plain("affection", "nuzzle", GroupSocial, 0.9),
		plain("conflict", "defend", GroupSocial, -0.8),
		plain("company", "chatter", GroupSocial, 0.6),
		plain("eye_contact", "smile", GroupSocial, 0.5),
		plain("teasing", "playful_retort", GroupSocial, 0.3),
		plain("gratitude", "warm_reply", GroupSocial, 0.7),

		// task
		need("boredom", "seek_novelty", GroupTask, -0.2, 90*time.Minute),
		habit("novelty", "explore", GroupTask, 0.6, time.Hour),
		plain("success", "celebrate", GroupTask, 0.9),
		plain("failure", "frustration", GroupTask, -0.8),
		plain("deadline", "hurry", GroupTask, -0.4),
		plain("interruption", "annoyance", GroupTask, -0.5),
		plain("curiosity_trigger", "ask_question", GroupTask, 0.5),
		habit("routine", "autopilot", GroupTask, 0.0, 8*hour),
		plain("surprise", "gasp", GroupTask, 0.2),
		habit("repetition", "sigh", GroupTask, -0.3, 45*time.Minute),

		// temporal
		plain("morning", "greet_day", GroupTemporal, 0.4),
		plain("night", "reflect", GroupTemporal, 0.1),
		plain("weekend", "lighten_up", GroupTemporal, 0.5),
		habit("long_session", "suggest_break", GroupTemporal, -0.2, 2*hour),
		habit("music", "hum", GroupTemporal, 0.6, time.Hour),
		plain("notification", "check_in", GroupTemporal, 0.0),
		need("idle_user", "nudge_user", GroupTemporal, 0.2, 12*hour),
		plain("achievement", "pride", GroupTemporal, 0.8),
		plain("reminder", "recall", GroupTemporal, 0.1),
		need("anniversary", "nostalgia", GroupTemporal, 0.3, 365*day),
	}
}

// #endregion catalog
