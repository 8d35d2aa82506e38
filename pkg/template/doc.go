// Package template defines the runtime side of a compiled template: the
// descriptor produced by a compiler, the execution context handed to every
// activation, and the instances renderers operate on.
//
// Instances come in two shapes. Instance carries no model; ModelInstance[M]
// binds a typed model. Both satisfy Template, whose Model accessor lets generic
// machinery read the model without knowing M.
package template
