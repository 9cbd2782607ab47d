// Package labels provides consistent labeling for the Kubernetes objects the
// operator owns.
//
// Labels follow the app.kubernetes.io recommended keys plus a small set of
// zookeeper.imamik.io keys that record the role group and member identity of
// an object. The label set doubles as the ownership marker the state observer
// lists by.
package labels
