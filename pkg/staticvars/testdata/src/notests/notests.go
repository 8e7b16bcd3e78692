package notests

var state int

func Set(v int) { state = v }
