package usecase

var OrderTransitions = orderTransitions
