// Package roster owns the activity rosters: which students are signed up for
// which extracurricular activity.
//
// A Store is created once from seed data and then mutated only through Signup
// and Unregister. Activities are never added or removed at runtime; only
// participant membership changes. All state is held in memory and is lost when
// the process exits.
//
// # Example
//
//	store, err := roster.NewStore(roster.DefaultSeed())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	msg, err := store.Signup("Chess Club", "amy@mergington.edu")
//	if errors.Is(err, roster.ErrAlreadySignedUp) {
//	    // ...
//	}
package roster
