package pm

var WithRootLimit = withRootLimit
