package game

import "math/rand/v2"

// Word pools by rarity tier. Compiled in so a fresh checkout runs without any
// runtime files; the selection flags in Parameters decide which tiers are drawn.
var (
	wordsVeryCommon = []string{
		"soleil", "maison", "chien", "chat", "table", "voiture", "arbre", "fleur",
		"livre", "porte", "fenetre", "pain", "eau", "feu", "montagne", "plage",
		"musique", "cinema", "ecole", "jardin", "cuisine", "telephone", "avion",
		"train", "velo", "pluie", "neige", "etoile", "lune", "riviere", "foret",
		"oiseau", "poisson", "fromage", "chocolat", "cafe", "ballon", "chapeau",
		"chaussure", "miroir",
	}
	wordsLessCommon = []string{
		"boussole", "phare", "cascade", "volcan", "comete", "labyrinthe", "ancre",
		"sablier", "girouette", "harpe", "trapeze", "moulin", "vitrail", "falaise",
		"geyser", "totem", "parchemin", "catapulte", "gondole", "igloo", "oasis",
		"pagode", "sarbacane", "telescope", "tremplin", "vestiaire", "banquise",
		"carrousel", "dirigeable", "echafaudage", "funambule", "hamac", "kiosque",
		"lanterne", "metronome", "nacelle", "observatoire", "palissade",
	}
	wordsRarelyCommon = []string{
		"alambic", "palimpseste", "astrolabe", "caravelle", "doline", "embrun",
		"florilege", "gargouille", "haruspice", "isthme", "jacquard", "kaleidoscope",
		"lutrin", "mascaret", "nitescence", "ostensoir", "pantographe", "quenouille",
		"rhizome", "semaphore", "tesselle", "uppercut", "virelangue", "wagonnet",
		"xylophone", "ypreau", "zeppelin", "clepsydre", "heliotrope", "palanquin",
	}
)

// drawWord picks a candidate word for a team's slot. Package variable so the
// state machine tests can stub it deterministically.
var drawWord = func(sel WordSelection) string {
	var pool []string
	if sel.VeryCommon {
		pool = append(pool, wordsVeryCommon...)
	}
	if sel.LessCommon {
		pool = append(pool, wordsLessCommon...)
	}
	if sel.RarelyCommon {
		pool = append(pool, wordsRarelyCommon...)
	}
	if len(pool) == 0 {
		pool = wordsVeryCommon
	}
	return pool[rand.IntN(len(pool))]
}

// dealCandidates draws a starting candidate for each sage, redrawing a few
// times so both teams don't get handed the same word when the pool has more
// than one.
func dealCandidates(r *Round, p Parameters) {
	red := drawWord(p.WordSelection)
	blue := drawWord(p.WordSelection)
	for i := 0; i < 5 && blue == red; i++ {
		blue = drawWord(p.WordSelection)
	}
	r.Candidates[TeamRed] = red
	r.Candidates[TeamBlue] = blue
}

// PoolSize reports how many words the given selection draws from.
func PoolSize(sel WordSelection) int {
	n := 0
	if sel.VeryCommon {
		n += len(wordsVeryCommon)
	}
	if sel.LessCommon {
		n += len(wordsLessCommon)
	}
	if sel.RarelyCommon {
		n += len(wordsRarelyCommon)
	}
	if n == 0 {
		n = len(wordsVeryCommon)
	}
	return n
}
